package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/dashboard"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/session"
)

func registerSessionHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "create-session", Method: http.MethodPost, Path: "/api/v1/sessions", Summary: "Open a dashboard session", Tags: []string{"Sessions"}, DefaultStatus: http.StatusCreated},
		func(ctx context.Context, input *struct {
			Authorization string `header:"Authorization" doc:"Bearer token of the signed-in user. Omit for an anonymous session."`
		}) (*sessionOutput, error) {
			info, err := svc.CreateSession(ctx, session.BearerToken(input.Authorization))
			if err != nil {
				return nil, mapErr(err)
			}
			return &sessionOutput{Body: info}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-session", Method: http.MethodGet, Path: "/api/v1/sessions/{session_id}", Summary: "Get session state", Tags: []string{"Sessions"}},
		func(ctx context.Context, input *sessionIDInput) (*sessionOutput, error) {
			info, err := svc.GetSession(input.SessionID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &sessionOutput{Body: info}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "close-session", Method: http.MethodDelete, Path: "/api/v1/sessions/{session_id}", Summary: "Close a session and drop its pending trigger", Tags: []string{"Sessions"}},
		func(ctx context.Context, input *sessionIDInput) (*statusOutput, error) {
			if err := svc.CloseSession(input.SessionID); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "closed"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "update-metadata", Method: http.MethodPut, Path: "/api/v1/sessions/{session_id}/metadata", Summary: "Edit symbol, timeframe and time window", Tags: []string{"Sessions"}},
		func(ctx context.Context, input *struct {
			SessionID string `path:"session_id"`
			Body      struct {
				Symbol    *string `json:"symbol,omitempty" doc:"Symbol sent with uploads and triggers"`
				Timeframe *string `json:"timeframe,omitempty" doc:"Timeframe in minutes"`
				StartTime *string `json:"start_time,omitempty" doc:"YYYY-MM-DD HH:MM local; empty clears"`
				EndTime   *string `json:"end_time,omitempty" doc:"YYYY-MM-DD HH:MM local; empty clears"`
			}
		}) (*sessionOutput, error) {
			info, err := svc.UpdateMetadata(input.SessionID, dashboard.MetadataUpdate{
				Symbol:    input.Body.Symbol,
				Timeframe: input.Body.Timeframe,
				StartTime: input.Body.StartTime,
				EndTime:   input.Body.EndTime,
			})
			if err != nil {
				return nil, mapErr(err)
			}
			return &sessionOutput{Body: info}, nil
		})
}
