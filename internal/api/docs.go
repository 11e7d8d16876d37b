package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func registerDocsRoutes(router chi.Router) {
	router.Get("/docs", serveHTML(docsHTML))
	router.Get("/docs/events", serveHTML(eventsDocsHTML))
}

func serveHTML(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(page)); err != nil {
			slog.Debug("docs response write failed", "path", r.URL.Path, "error", err)
		}
	}
}

// docsHTML renders the OpenAPI document with Stoplight Elements under a
// small nav bar pointing at the hand-written event stream page.
const docsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>TV Volume Dashboard API</title>
  <link href="https://unpkg.com/@stoplight/elements@9.0.0/styles.min.css" rel="stylesheet" />
  <script src="https://unpkg.com/@stoplight/elements@9.0.0/web-components.min.js" crossorigin="anonymous"></script>
  <style>
    html, body { height: 100%; margin: 0; }
    body { display: flex; flex-direction: column; background: #0d1117; }
    nav {
      display: flex;
      gap: 16px;
      align-items: center;
      padding: 8px 16px;
      background: #161b22;
      border-bottom: 1px solid #30363d;
      font: 500 12px -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
    }
    nav strong { color: #e6edf3; margin-right: auto; }
    nav a { color: #58a6ff; text-decoration: none; }
    elements-api { flex: 1; min-height: 0; }
  </style>
</head>
<body>
  <nav>
    <strong>Volume dashboard</strong>
    <a href="/docs/events">Event stream</a>
    <a href="/openapi.yaml">openapi.yaml</a>
    <a href="/health">health</a>
  </nav>
  <elements-api
    apiDescriptionUrl="/openapi.json"
    router="hash"
    layout="sidebar"
    tryItCredentialsPolicy="same-origin"
    darkMode
  />
</body>
</html>`
