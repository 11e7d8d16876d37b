package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/archive"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/dashboard"
)

func registerArchiveHandlers(api huma.API, svc Service) {
	type listArchivesOutput struct {
		Body struct {
			Archives []archive.Meta `json:"archives"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "list-archives", Method: http.MethodGet, Path: "/api/v1/archives", Summary: "List archived uploads, newest first", Tags: []string{"Archives"}},
		func(ctx context.Context, input *struct {
			SessionID string `query:"session_id" doc:"Optional session filter"`
		}) (*listArchivesOutput, error) {
			metas, err := svc.ListArchives(input.SessionID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listArchivesOutput{}
			out.Body.Archives = metas
			return out, nil
		})

	type archiveIDInput struct {
		ArchiveID string `path:"archive_id"`
	}

	huma.Register(api, huma.Operation{OperationID: "get-archive", Method: http.MethodGet, Path: "/api/v1/archives/{archive_id}", Summary: "Get an archived upload with its bars", Tags: []string{"Archives"}},
		func(ctx context.Context, input *archiveIDInput) (*struct{ Body dashboard.ArchiveView }, error) {
			view, err := svc.GetArchive(input.ArchiveID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &struct{ Body dashboard.ArchiveView }{Body: view}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-archive", Method: http.MethodDelete, Path: "/api/v1/archives/{archive_id}", Summary: "Delete an archived upload", Tags: []string{"Archives"}},
		func(ctx context.Context, input *archiveIDInput) (*statusOutput, error) {
			if err := svc.DeleteArchive(input.ArchiveID); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "deleted"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "restore-archive", Method: http.MethodPost, Path: "/api/v1/sessions/{session_id}/archives/{archive_id}/restore", Summary: "Load an archived upload into a session", Tags: []string{"Archives"}},
		func(ctx context.Context, input *struct {
			SessionID string `path:"session_id"`
			ArchiveID string `path:"archive_id"`
		}) (*chartsOutput, error) {
			view, err := svc.RestoreArchive(input.SessionID, input.ArchiveID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &chartsOutput{Body: view}, nil
		})
}
