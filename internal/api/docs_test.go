package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/archive"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/dashboard"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/journal"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/profile"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/relay"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/trigger"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/types"
)

type stubService struct {
	err    error
	broker *relay.Broker
}

func (s *stubService) CreateSession(ctx context.Context, token string) (dashboard.SessionInfo, error) {
	return dashboard.SessionInfo{ID: "s1", Authenticated: token != ""}, s.err
}
func (s *stubService) GetSession(id string) (dashboard.SessionInfo, error) {
	return dashboard.SessionInfo{ID: id}, s.err
}
func (s *stubService) CloseSession(id string) error { return s.err }
func (s *stubService) UpdateMetadata(id string, upd dashboard.MetadataUpdate) (dashboard.SessionInfo, error) {
	return dashboard.SessionInfo{ID: id}, s.err
}
func (s *stubService) Upload(ctx context.Context, id string, in dashboard.UploadInput) (dashboard.ChartsView, error) {
	return dashboard.ChartsView{SessionID: id}, s.err
}
func (s *stubService) Charts(id string) (dashboard.ChartsView, error) {
	return dashboard.ChartsView{SessionID: id}, s.err
}
func (s *stubService) Click(ctx context.Context, id string, in dashboard.ClickInput) (trigger.Outcome, error) {
	return trigger.Outcome{Status: trigger.StatusForwarded}, s.err
}
func (s *stubService) SubmitCredentials(ctx context.Context, id string, creds profile.Credentials) (trigger.Outcome, error) {
	return trigger.Outcome{Status: trigger.StatusCredentialsSaved}, s.err
}
func (s *stubService) CancelPrompt(ctx context.Context, id string) (trigger.Outcome, error) {
	return trigger.Outcome{Status: trigger.StatusPromptClosed}, s.err
}
func (s *stubService) TriggerState(id string) (trigger.Snapshot, error) {
	return trigger.Snapshot{State: trigger.StateIdle}, s.err
}
func (s *stubService) RecentTriggers(sessionID string, limit int) ([]journal.Entry, error) {
	return nil, s.err
}
func (s *stubService) ListArchives(sessionID string) ([]archive.Meta, error) {
	return []archive.Meta{}, s.err
}
func (s *stubService) GetArchive(id string) (dashboard.ArchiveView, error) {
	return dashboard.ArchiveView{}, s.err
}
func (s *stubService) DeleteArchive(id string) error { return s.err }
func (s *stubService) RestoreArchive(sessionID, archiveID string) (dashboard.ChartsView, error) {
	return dashboard.ChartsView{SessionID: sessionID}, s.err
}
func (s *stubService) Broker() *relay.Broker {
	if s.broker == nil {
		s.broker = relay.NewBroker()
	}
	return s.broker
}

func TestDocsDarkMode(t *testing.T) {
	h := NewServer(&stubService{}, Options{})
	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, `data-theme="dark"`) {
		t.Fatalf("docs missing dark theme marker")
	}
	if !strings.Contains(body, `/docs/events`) {
		t.Fatalf("docs missing events link")
	}
}

func TestEventsDocs(t *testing.T) {
	h := NewServer(&stubService{}, Options{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/events", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "credentials_required") {
		t.Fatalf("events docs missing event kinds")
	}
}

func TestOpenAPIListsRoutes(t *testing.T) {
	h := NewServer(&stubService{}, Options{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	for _, path := range []string{"/api/v1/sessions", "/api/v1/sessions/{session_id}/clicks", "/api/v1/sessions/{session_id}/credentials", "/api/v1/archives"} {
		if !strings.Contains(w.Body.String(), path) {
			t.Fatalf("openapi missing %s", path)
		}
	}
}

func TestMapErrStatuses(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{types.CodeValidation, http.StatusBadRequest},
		{types.CodeAccessDenied, http.StatusUnauthorized},
		{types.CodeSessionNotFound, http.StatusNotFound},
		{types.CodeArchiveNotFound, http.StatusNotFound},
		{types.CodeNoChartData, http.StatusConflict},
		{types.CodeInvalidClick, http.StatusUnprocessableEntity},
		{types.CodeParseFailed, http.StatusUnprocessableEntity},
		{types.CodeForwardFailed, http.StatusBadGateway},
		{types.CodeCredentialsSaveFailed, http.StatusBadGateway},
		{types.CodeUpstreamUnavailable, http.StatusBadGateway},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h := NewServer(&stubService{err: types.NewError(tt.code, "boom", nil)}, Options{})
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/charts", nil))
			if w.Code != tt.want {
				t.Fatalf("status = %d; want %d", w.Code, tt.want)
			}
		})
	}
}
