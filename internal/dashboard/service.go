// Package dashboard holds the per-page-load dashboard sessions and wires the
// upload, chart and trigger components together for the HTTP API.
package dashboard

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/archive"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/chart"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/config"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/filename"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/journal"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/notify"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/profile"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/relay"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/session"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/trigger"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/types"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/upload"
)

// Parser turns an uploaded spreadsheet into chart records.
type Parser interface {
	Process(ctx context.Context, req upload.Request) (upload.Result, error)
}

// Options are the collaborators of a Service. Archive, Journal and Notifier
// are optional.
type Options struct {
	Profiles       *profile.Client
	Parser         Parser
	Forwarder      trigger.Forwarder
	Broker         *relay.Broker
	Journal        journal.Journal
	Archive        *archive.Store
	Notifier       *notify.Notifier
	Styles         *config.ChartStyles
	AllowAnonymous bool
}

// Service is the dashboard application layer behind the HTTP API.
type Service struct {
	opts     Options
	sessions *session.Registry[*workspace]
}

func NewService(opts Options) *Service {
	if opts.Broker == nil {
		opts.Broker = relay.NewBroker()
	}
	if opts.Journal == nil {
		opts.Journal = journal.Nop{}
	}
	return &Service{opts: opts, sessions: session.NewRegistry[*workspace]()}
}

// Broker exposes the event broker for the stream handlers.
func (s *Service) Broker() *relay.Broker { return s.opts.Broker }

// workspace is the state of one dashboard session.
type workspace struct {
	sess     *session.Session
	orch     *trigger.Orchestrator
	reporter *trigger.Reporter

	mu        sync.RWMutex
	meta      filename.Metadata
	start     time.Time
	end       time.Time
	series    map[chart.Kind][]chart.Record
	datasets  map[chart.Kind]chart.Dataset
	archiveID string
}

// SessionInfo is the externally visible session state.
type SessionInfo struct {
	ID            string           `json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	Authenticated bool             `json:"authenticated"`
	Profile       *session.Profile `json:"profile,omitempty"`
	Metadata      MetadataView     `json:"metadata"`
	HasCharts     bool             `json:"has_charts"`
	ArchiveID     string           `json:"archive_id,omitempty"`
	Trigger       trigger.Snapshot `json:"trigger"`
	Subscribers   int              `json:"subscribers"`
}

// MetadataView is the upload metadata plus the optional time window, times
// rendered as "YYYY-MM-DD HH:MM".
type MetadataView struct {
	FileName  string `json:"file_name"`
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// CreateSession opens a dashboard session for token. An empty token yields
// an anonymous session when allowed; a non-empty token must be accepted by
// the profile service.
func (s *Service) CreateSession(ctx context.Context, token string) (SessionInfo, error) {
	token = strings.TrimSpace(token)

	var prof *session.Profile
	if token == "" {
		if !s.opts.AllowAnonymous {
			return SessionInfo{}, types.NewError(types.CodeAccessDenied, "a bearer token is required", nil)
		}
	} else {
		if s.opts.Profiles == nil {
			return SessionInfo{}, types.NewError(types.CodeUpstreamUnavailable, "profile service not configured", nil)
		}
		me, err := s.opts.Profiles.WithTokens(session.StaticToken(token)).Me(ctx)
		if err != nil {
			return SessionInfo{}, err
		}
		prof = &me
	}

	_, ws := s.sessions.Create(func(id string) *workspace {
		sess := session.New(id, token, prof)
		var gateway trigger.Gateway
		if s.opts.Profiles != nil {
			gateway = s.opts.Profiles.WithTokens(sess)
		}
		reporter := &trigger.Reporter{
			SessionID: id,
			Broker:    s.opts.Broker,
			Journal:   s.opts.Journal,
			Notifier:  s.opts.Notifier,
		}
		return &workspace{
			sess:     sess,
			orch:     trigger.NewOrchestrator(sess, gateway, s.opts.Forwarder, reporter),
			reporter: reporter,
		}
	})

	slog.Info("dashboard session opened", "session_id", ws.sess.ID, "authenticated", ws.sess.Authenticated())
	return s.info(ws), nil
}

func (s *Service) GetSession(id string) (SessionInfo, error) {
	ws, err := s.workspace(id)
	if err != nil {
		return SessionInfo{}, err
	}
	return s.info(ws), nil
}

// CloseSession drops the session, its pending trigger and its subscribers.
func (s *Service) CloseSession(id string) error {
	ws, ok := s.sessions.Remove(strings.TrimSpace(id))
	if !ok {
		return sessionNotFound(id)
	}
	s.opts.Broker.CloseSession(ws.sess.ID)
	ws.reporter.Wait()
	slog.Info("dashboard session closed", "session_id", ws.sess.ID)
	return nil
}

// Close drops every session.
func (s *Service) Close() {
	for _, id := range s.sessions.IDs() {
		_ = s.CloseSession(id)
	}
}

func (s *Service) SessionCount() int { return s.sessions.Count() }

// MetadataUpdate carries manual edits; nil fields are left unchanged and an
// empty time clears it.
type MetadataUpdate struct {
	Symbol    *string
	Timeframe *string
	StartTime *string
	EndTime   *string
}

func (s *Service) UpdateMetadata(id string, upd MetadataUpdate) (SessionInfo, error) {
	ws, err := s.workspace(id)
	if err != nil {
		return SessionInfo{}, err
	}

	var start, end time.Time
	if upd.StartTime != nil {
		if start, err = parseOptionalTime("start_time", *upd.StartTime); err != nil {
			return SessionInfo{}, err
		}
	}
	if upd.EndTime != nil {
		if end, err = parseOptionalTime("end_time", *upd.EndTime); err != nil {
			return SessionInfo{}, err
		}
	}

	ws.mu.Lock()
	if upd.Symbol != nil {
		ws.meta.Symbol = strings.TrimSpace(*upd.Symbol)
	}
	if upd.Timeframe != nil {
		ws.meta.Timeframe = strings.TrimSpace(*upd.Timeframe)
	}
	if upd.StartTime != nil {
		ws.start = start
	}
	if upd.EndTime != nil {
		ws.end = end
	}
	ws.mu.Unlock()

	return s.info(ws), nil
}

// UploadInput is one spreadsheet upload. Symbol and Timeframe override the
// values read from the file name when set.
type UploadInput struct {
	FileName  string
	File      io.Reader
	Symbol    string
	Timeframe string
	StartTime string
	EndTime   string
}

// Upload interprets the file name, sends the file to the parser and replaces
// the session's charts with the result.
func (s *Service) Upload(ctx context.Context, id string, in UploadInput) (ChartsView, error) {
	ws, err := s.workspace(id)
	if err != nil {
		return ChartsView{}, err
	}
	if !filename.HasSpreadsheetExtension(in.FileName) {
		return ChartsView{}, types.NewError(types.CodeValidation, "only .xlsx and .csv files are accepted", nil)
	}
	if in.File == nil {
		return ChartsView{}, types.NewError(types.CodeValidation, "file is required", nil)
	}
	if s.opts.Parser == nil {
		return ChartsView{}, types.NewError(types.CodeUpstreamUnavailable, "parser service not configured", nil)
	}

	meta := s.opts.Styles.Interpreter().Interpret(in.FileName)
	if v := strings.TrimSpace(in.Symbol); v != "" {
		meta.Symbol = v
	}
	if v := strings.TrimSpace(in.Timeframe); v != "" {
		meta.Timeframe = v
	}

	ws.mu.RLock()
	start, end := ws.start, ws.end
	ws.mu.RUnlock()
	if in.StartTime != "" {
		if start, err = parseOptionalTime("start_time", in.StartTime); err != nil {
			return ChartsView{}, err
		}
	}
	if in.EndTime != "" {
		if end, err = parseOptionalTime("end_time", in.EndTime); err != nil {
			return ChartsView{}, err
		}
	}

	res, err := s.opts.Parser.Process(ctx, upload.Request{
		FileName:  in.FileName,
		File:      in.File,
		Script:    meta.Symbol,
		Timeframe: meta.Timeframe,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		slog.Warn("upload processing failed", "session_id", id, "file", in.FileName, "error", err)
		return ChartsView{}, err
	}

	archiveID := ""
	if s.opts.Archive != nil {
		saved, err := s.opts.Archive.Save(archive.Meta{
			SessionID: ws.sess.ID,
			FileName:  in.FileName,
			Symbol:    meta.Symbol,
			Timeframe: meta.Timeframe,
			StartTime: upload.FormatTime(start),
			EndTime:   upload.FormatTime(end),
		}, res.Series)
		if err != nil {
			slog.Warn("upload archive failed", "session_id", id, "error", err)
		} else {
			archiveID = saved.ID
		}
	}

	ws.mu.Lock()
	ws.meta = meta
	ws.start, ws.end = start, end
	ws.setSeriesLocked(res.Series)
	ws.archiveID = archiveID
	ws.mu.Unlock()

	slog.Info("upload processed", "session_id", id, "symbol", meta.Symbol, "timeframe", meta.Timeframe, "archive_id", archiveID)
	return s.Charts(id)
}

func (ws *workspace) setSeriesLocked(series map[chart.Kind][]chart.Record) {
	ws.series = series
	ws.datasets = make(map[chart.Kind]chart.Dataset, len(chart.Kinds))
	for _, kind := range chart.Kinds {
		ws.datasets[kind] = chart.BuildDataset(kind, series[kind])
	}
}

func (s *Service) workspace(id string) (*workspace, error) {
	ws, ok := s.sessions.Get(strings.TrimSpace(id))
	if !ok {
		return nil, sessionNotFound(id)
	}
	return ws, nil
}

func (s *Service) info(ws *workspace) SessionInfo {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return SessionInfo{
		ID:            ws.sess.ID,
		CreatedAt:     ws.sess.CreatedAt,
		Authenticated: ws.sess.Authenticated(),
		Profile:       ws.sess.Profile(),
		Metadata:      ws.metadataLocked(),
		HasCharts:     ws.series != nil,
		ArchiveID:     ws.archiveID,
		Trigger:       ws.orch.Snapshot(),
		Subscribers:   s.opts.Broker.ClientCount(ws.sess.ID),
	}
}

func (ws *workspace) metadataLocked() MetadataView {
	return MetadataView{
		FileName:  ws.meta.FileName,
		Symbol:    ws.meta.Symbol,
		Timeframe: ws.meta.Timeframe,
		StartTime: upload.FormatTime(ws.start),
		EndTime:   upload.FormatTime(ws.end),
	}
}

func parseOptionalTime(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := upload.ParseFormTime(v)
	if err != nil {
		return time.Time{}, types.NewError(types.CodeValidation, field+" must look like YYYY-MM-DD HH:MM", err)
	}
	return t, nil
}

func sessionNotFound(id string) error {
	return types.NewError(types.CodeSessionNotFound, "session "+strings.TrimSpace(id)+" not found", nil)
}
