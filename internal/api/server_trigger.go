package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/dashboard"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/journal"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/profile"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/trigger"
)

func registerTriggerHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "chart-click", Method: http.MethodPost, Path: "/api/v1/sessions/{session_id}/clicks", Summary: "Trigger automation for a clicked bar", Tags: []string{"Trigger"}},
		func(ctx context.Context, input *struct {
			SessionID string `path:"session_id"`
			Body      struct {
				Chart string `json:"chart" required:"true" enum:"open,close,high,low" doc:"Chart the bar belongs to"`
				Index int    `json:"index" minimum:"0" doc:"Bar index within the chart"`
			}
		}) (*outcomeOutput, error) {
			out, err := svc.Click(ctx, input.SessionID, dashboard.ClickInput{Chart: input.Body.Chart, Index: input.Body.Index})
			if err != nil {
				return nil, mapErr(err)
			}
			return &outcomeOutput{Body: out}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-trigger-state", Method: http.MethodGet, Path: "/api/v1/sessions/{session_id}/trigger", Summary: "Get trigger state and pending click", Tags: []string{"Trigger"}},
		func(ctx context.Context, input *sessionIDInput) (*struct{ Body trigger.Snapshot }, error) {
			snap, err := svc.TriggerState(input.SessionID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &struct{ Body trigger.Snapshot }{Body: snap}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "submit-credentials", Method: http.MethodPost, Path: "/api/v1/sessions/{session_id}/credentials", Summary: "Save automation credentials and send the pending click", Tags: []string{"Trigger"}},
		func(ctx context.Context, input *struct {
			SessionID string `path:"session_id"`
			Body      struct {
				Email    string `json:"email" required:"true" format:"email"`
				Password string `json:"password" required:"true" minLength:"1"`
			}
		}) (*outcomeOutput, error) {
			out, err := svc.SubmitCredentials(ctx, input.SessionID, profile.Credentials{Email: input.Body.Email, Password: input.Body.Password})
			if err != nil {
				return nil, mapErr(err)
			}
			return &outcomeOutput{Body: out}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "cancel-prompt", Method: http.MethodDelete, Path: "/api/v1/sessions/{session_id}/credentials/prompt", Summary: "Close the credentials prompt without sending", Tags: []string{"Trigger"}},
		func(ctx context.Context, input *sessionIDInput) (*outcomeOutput, error) {
			out, err := svc.CancelPrompt(ctx, input.SessionID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &outcomeOutput{Body: out}, nil
		})

	type triggersOutput struct {
		Body struct {
			Entries []journal.Entry `json:"entries"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "list-triggers", Method: http.MethodGet, Path: "/api/v1/sessions/{session_id}/triggers", Summary: "List recent trigger outcomes", Tags: []string{"Trigger"}},
		func(ctx context.Context, input *struct {
			SessionID string `path:"session_id"`
			Limit     int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
		}) (*triggersOutput, error) {
			entries, err := svc.RecentTriggers(input.SessionID, input.Limit)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &triggersOutput{}
			out.Body.Entries = entries
			if out.Body.Entries == nil {
				out.Body.Entries = []journal.Entry{}
			}
			return out, nil
		})
}
