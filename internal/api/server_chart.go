package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/dashboard"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/types"
)

func registerChartHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "get-charts", Method: http.MethodGet, Path: "/api/v1/sessions/{session_id}/charts", Summary: "Get the four volume charts with axis plans and data tables", Tags: []string{"Charts"}},
		func(ctx context.Context, input *sessionIDInput) (*chartsOutput, error) {
			view, err := svc.Charts(input.SessionID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &chartsOutput{Body: view}, nil
		})
}

// registerUploadRoute mounts the multipart upload outside huma so the file
// streams straight through to the parser.
func registerUploadRoute(router chi.Router, svc Service, maxBytes int64) {
	router.Post("/api/v1/sessions/{session_id}/upload", func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
				return
			}
			writeJSONError(w, http.StatusBadRequest, "expected multipart/form-data with a file field")
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		view, err := svc.Upload(r.Context(), chi.URLParam(r, "session_id"), dashboard.UploadInput{
			FileName:  header.Filename,
			File:      file,
			Symbol:    r.FormValue("symbol"),
			Timeframe: r.FormValue("timeframe"),
			StartTime: r.FormValue("start_time"),
			EndTime:   r.FormValue("end_time"),
		})
		if err != nil {
			writeCodedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	})
}

func writeCodedError(w http.ResponseWriter, err error) {
	var coded *types.CodedError
	if errors.As(err, &coded) {
		writeJSONError(w, statusForCode(coded.Code), coded.Message)
		return
	}
	writeJSONError(w, http.StatusInternalServerError, err.Error())
}

// writeJSONError renders the same problem shape huma uses.
func writeJSONError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	body := map[string]any{"title": http.StatusText(status), "status": status, "detail": detail}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("error response write failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response write failed", "error", err)
	}
}
