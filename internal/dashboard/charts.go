package dashboard

import (
	"context"
	"strings"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/chart"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/profile"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/scaling"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/trigger"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/types"
)

// ChartsView is everything the page needs to draw the four charts and their
// data tables.
type ChartsView struct {
	SessionID string       `json:"session_id"`
	Metadata  MetadataView `json:"metadata"`
	ArchiveID string       `json:"archive_id,omitempty"`
	Charts    []ChartView  `json:"charts"`
}

type ChartView struct {
	Kind           chart.Kind       `json:"kind"`
	Title          string           `json:"title"`
	TrendlineColor string           `json:"trendline_color"`
	Dataset        chart.Dataset    `json:"dataset"`
	Axis           scaling.AxisPlan `json:"axis"`
	Ticks          []scaling.Tick   `json:"ticks"`
	Records        []chart.Record   `json:"records"`
}

func (s *Service) Charts(id string) (ChartsView, error) {
	ws, err := s.workspace(id)
	if err != nil {
		return ChartsView{}, err
	}

	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if ws.series == nil {
		return ChartsView{}, types.NewError(types.CodeNoChartData, "upload a file first", nil)
	}

	view := ChartsView{SessionID: ws.sess.ID, Metadata: ws.metadataLocked(), ArchiveID: ws.archiveID}
	for _, kind := range chart.Kinds {
		ds := ws.datasets[kind]
		plan := scaling.Plan(ds.Data)
		view.Charts = append(view.Charts, ChartView{
			Kind:           kind,
			Title:          kind.Title(),
			TrendlineColor: s.opts.Styles.Color(kind),
			Dataset:        ds,
			Axis:           plan,
			Ticks:          scaling.Ticks(plan, ds.Data),
			Records:        ws.series[kind],
		})
	}
	return view, nil
}

// ClickInput identifies one clicked bar.
type ClickInput struct {
	Chart string
	Index int
}

// Click hands the clicked bar to the session's orchestrator.
func (s *Service) Click(ctx context.Context, id string, in ClickInput) (trigger.Outcome, error) {
	ws, err := s.workspace(id)
	if err != nil {
		return trigger.Outcome{}, err
	}
	kind, ok := chart.ParseKind(in.Chart)
	if !ok {
		return trigger.Outcome{}, types.NewError(types.CodeValidation, "chart must be one of open, close, high, low", nil)
	}

	ws.mu.RLock()
	if ws.series == nil {
		ws.mu.RUnlock()
		return trigger.Outcome{}, types.NewError(types.CodeNoChartData, "upload a file first", nil)
	}
	meta := ws.metadataLocked()
	click := trigger.Click{
		Dataset:        ws.datasets[kind],
		Index:          in.Index,
		Meta:           ws.meta,
		StartTime:      meta.StartTime,
		EndTime:        meta.EndTime,
		TrendlineColor: s.opts.Styles.Color(kind),
	}
	ws.mu.RUnlock()

	return ws.orch.OnChartClick(ctx, click)
}

// SubmitCredentials saves the credentials and sends the pending click.
func (s *Service) SubmitCredentials(ctx context.Context, id string, creds profile.Credentials) (trigger.Outcome, error) {
	ws, err := s.workspace(id)
	if err != nil {
		return trigger.Outcome{}, err
	}
	creds.Email = strings.TrimSpace(creds.Email)
	return ws.orch.OnCredentialsSubmitted(ctx, creds)
}

// CancelPrompt closes the credentials prompt without sending anything.
func (s *Service) CancelPrompt(ctx context.Context, id string) (trigger.Outcome, error) {
	ws, err := s.workspace(id)
	if err != nil {
		return trigger.Outcome{}, err
	}
	return ws.orch.OnPromptCancelled(ctx), nil
}

func (s *Service) TriggerState(id string) (trigger.Snapshot, error) {
	ws, err := s.workspace(id)
	if err != nil {
		return trigger.Snapshot{}, err
	}
	return ws.orch.Snapshot(), nil
}
