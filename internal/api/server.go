package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/archive"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/dashboard"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/journal"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/profile"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/relay"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/trigger"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/types"
)

type Service interface {
	CreateSession(ctx context.Context, token string) (dashboard.SessionInfo, error)
	GetSession(id string) (dashboard.SessionInfo, error)
	CloseSession(id string) error
	UpdateMetadata(id string, upd dashboard.MetadataUpdate) (dashboard.SessionInfo, error)
	Upload(ctx context.Context, id string, in dashboard.UploadInput) (dashboard.ChartsView, error)
	Charts(id string) (dashboard.ChartsView, error)
	Click(ctx context.Context, id string, in dashboard.ClickInput) (trigger.Outcome, error)
	SubmitCredentials(ctx context.Context, id string, creds profile.Credentials) (trigger.Outcome, error)
	CancelPrompt(ctx context.Context, id string) (trigger.Outcome, error)
	TriggerState(id string) (trigger.Snapshot, error)
	RecentTriggers(sessionID string, limit int) ([]journal.Entry, error)
	ListArchives(sessionID string) ([]archive.Meta, error)
	GetArchive(id string) (dashboard.ArchiveView, error)
	DeleteArchive(id string) error
	RestoreArchive(sessionID, archiveID string) (dashboard.ChartsView, error)
	Broker() *relay.Broker
}

// Options tune the HTTP layer.
type Options struct {
	MaxUploadBytes int64
}

type sessionIDInput struct {
	SessionID string `path:"session_id"`
}

type sessionOutput struct {
	Body dashboard.SessionInfo
}

type chartsOutput struct {
	Body dashboard.ChartsView
}

type outcomeOutput struct {
	Body trigger.Outcome
}

type statusOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

func NewServer(svc Service, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("TV Volume Dashboard API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	registerDocsRoutes(router)

	registerHealthHandlers(api)
	registerSessionHandlers(api, svc)
	registerChartHandlers(api, svc)
	registerTriggerHandlers(api, svc)
	registerArchiveHandlers(api, svc)
	registerUploadRoute(router, svc, opts.MaxUploadBytes)
	registerEventRoutes(router, svc)

	return router
}

func registerHealthHandlers(api huma.API) {
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Liveness probe", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*statusOutput, error) {
			out := &statusOutput{}
			out.Body.Status = "ok"
			return out, nil
		})
}

// statusForCode is the HTTP status of a CodedError code.
func statusForCode(code string) int {
	switch code {
	case types.CodeValidation:
		return http.StatusBadRequest
	case types.CodeAccessDenied:
		return http.StatusUnauthorized
	case types.CodeSessionNotFound, types.CodeArchiveNotFound:
		return http.StatusNotFound
	case types.CodeNoChartData:
		return http.StatusConflict
	case types.CodeInvalidClick, types.CodeParseFailed:
		return http.StatusUnprocessableEntity
	case types.CodeUpstreamUnavailable, types.CodeForwardFailed, types.CodeCredentialsSaveFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *types.CodedError
	if errors.As(err, &coded) {
		switch statusForCode(coded.Code) {
		case http.StatusBadRequest:
			return huma.Error400BadRequest(coded.Message)
		case http.StatusUnauthorized:
			return huma.Error401Unauthorized(coded.Message)
		case http.StatusNotFound:
			return huma.Error404NotFound(coded.Message)
		case http.StatusConflict:
			return huma.Error409Conflict(coded.Message)
		case http.StatusUnprocessableEntity:
			return huma.Error422UnprocessableEntity(coded.Message)
		case http.StatusBadGateway:
			return huma.Error502BadGateway(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
