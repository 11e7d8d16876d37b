package dashboard

import (
	"errors"
	"strings"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/archive"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/chart"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/filename"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/journal"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/types"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/upload"
)

// ArchiveView is an archived upload with its bars.
type ArchiveView struct {
	Meta   archive.Meta                  `json:"meta"`
	Series map[chart.Kind][]chart.Record `json:"series"`
}

func (s *Service) archiveStore() (*archive.Store, error) {
	if s.opts.Archive == nil {
		return nil, types.NewError(types.CodeArchiveNotFound, "archive is disabled", nil)
	}
	return s.opts.Archive, nil
}

// ListArchives returns archived uploads, newest first, optionally limited
// to one session.
func (s *Service) ListArchives(sessionID string) ([]archive.Meta, error) {
	store, err := s.archiveStore()
	if err != nil {
		return nil, err
	}
	metas, err := store.List()
	if err != nil {
		return nil, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return metas, nil
	}
	out := metas[:0]
	for _, m := range metas {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Service) GetArchive(id string) (ArchiveView, error) {
	store, err := s.archiveStore()
	if err != nil {
		return ArchiveView{}, err
	}
	meta, err := store.Get(strings.TrimSpace(id))
	if err != nil {
		return ArchiveView{}, archiveErr(err)
	}
	series, err := store.ReadSeries(meta.ID)
	if err != nil {
		return ArchiveView{}, archiveErr(err)
	}
	return ArchiveView{Meta: meta, Series: series}, nil
}

func (s *Service) DeleteArchive(id string) error {
	store, err := s.archiveStore()
	if err != nil {
		return err
	}
	return archiveErr(store.Delete(strings.TrimSpace(id)))
}

// RestoreArchive loads an archived upload into a session as if it had just
// been processed.
func (s *Service) RestoreArchive(sessionID, archiveID string) (ChartsView, error) {
	ws, err := s.workspace(sessionID)
	if err != nil {
		return ChartsView{}, err
	}
	view, err := s.GetArchive(archiveID)
	if err != nil {
		return ChartsView{}, err
	}
	start, err := upload.ParseFormTime(view.Meta.StartTime)
	if err != nil {
		return ChartsView{}, err
	}
	end, err := upload.ParseFormTime(view.Meta.EndTime)
	if err != nil {
		return ChartsView{}, err
	}

	ws.mu.Lock()
	ws.meta = filename.Metadata{FileName: view.Meta.FileName, Symbol: view.Meta.Symbol, Timeframe: view.Meta.Timeframe}
	ws.start, ws.end = start, end
	ws.setSeriesLocked(view.Series)
	ws.archiveID = view.Meta.ID
	ws.mu.Unlock()

	return s.Charts(sessionID)
}

type recentJournal interface {
	Recent(sessionID string, limit int) ([]journal.Entry, error)
}

// RecentTriggers lists the journal entries of a session, newest first. Only
// queryable journal backends support it.
func (s *Service) RecentTriggers(sessionID string, limit int) ([]journal.Entry, error) {
	if _, err := s.workspace(sessionID); err != nil {
		return nil, err
	}
	q, ok := s.opts.Journal.(recentJournal)
	if !ok {
		return nil, types.NewError(types.CodeValidation, "trigger history needs the sqlite journal", nil)
	}
	return q.Recent(strings.TrimSpace(sessionID), limit)
}

func archiveErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, archive.ErrNotFound) {
		return types.NewError(types.CodeArchiveNotFound, "archive not found", err)
	}
	return err
}
