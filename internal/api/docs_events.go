package api

const eventsDocsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Session Events - TV Volume Dashboard</title>
  <style>
    body {
      margin: 0 auto;
      max-width: 900px;
      padding: 32px 24px 64px;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      font-size: 14px;
      line-height: 1.65;
      background: #0d1117;
      color: #c9d1d9;
    }
    a { color: #58a6ff; text-decoration: none; }
    h1, h2 { color: #e6edf3; font-weight: 600; }
    h2 { margin-top: 36px; padding-bottom: 8px; border-bottom: 1px solid #21262d; font-size: 18px; }
    code, pre {
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
      font-size: 12px;
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 4px;
    }
    code { padding: 1px 5px; }
    pre { padding: 12px 16px; overflow-x: auto; }
    table { width: 100%; border-collapse: collapse; font-size: 13px; }
    th { text-align: left; padding: 8px 12px; background: #161b22; color: #8b949e; border-bottom: 1px solid #30363d; }
    td { padding: 8px 12px; border-bottom: 1px solid #21262d; vertical-align: top; }
  </style>
</head>
<body>
  <p><a href="/docs">&larr; REST API docs</a></p>
  <h1>Session event stream</h1>
  <p>Every trigger outcome of a dashboard session is pushed to its subscribers.
  Events are scoped to one session and are not replayed: connect before clicking.</p>

  <h2>Endpoints</h2>
  <table>
    <tr><th>Transport</th><th>Path</th></tr>
    <tr><td>Server-Sent Events</td><td><code>GET /api/v1/sessions/{session_id}/events</code></td></tr>
    <tr><td>WebSocket (text frames)</td><td><code>GET /api/v1/sessions/{session_id}/ws</code></td></tr>
  </table>
  <p>Both accept <code>?kinds=forwarded,forward_failed</code> to filter by kind.
  The stream ends when the session is closed.</p>

  <h2>Event kinds</h2>
  <table>
    <tr><th>Kind</th><th>When</th></tr>
    <tr><td><code>credentials_required</code></td><td>A click was parked; the credentials prompt is open.</td></tr>
    <tr><td><code>credentials_saved</code></td><td>Submitted credentials were stored.</td></tr>
    <tr><td><code>credentials_rejected</code></td><td>Storing the credentials failed; the prompt stays open.</td></tr>
    <tr><td><code>forwarded</code></td><td>The automation endpoint accepted the trigger.</td></tr>
    <tr><td><code>forward_failed</code></td><td>The automation endpoint failed; nothing is retried.</td></tr>
    <tr><td><code>prompt_closed</code></td><td>The prompt was cancelled; <code>dropped</code> tells whether a click was discarded.</td></tr>
    <tr><td><code>access_denied</code></td><td>A click or submission came from a session without a verified user.</td></tr>
    <tr><td><code>invalid_click</code></td><td>The clicked bar lacked price, volume, timestamp, symbol or timeframe.</td></tr>
  </table>

  <h2>Frame</h2>
<pre>{
  "session_id": "6f1c...",
  "kind": "forwarded",
  "at": "2024-06-16T10:30:00Z",
  "data": {
    "status": "forwarded",
    "chart": "close",
    "payload": {
      "symbol": "GOLD", "timeframe": "5", "price": "2331.5", "volume": 1234,
      "timestamp": "2024-06-16 10:25", "source": "click", "trendline_color": "#FFA500",
      "start_time": "2024-06-16 09:00", "end_time": "2024-06-16 17:00"
    }
  }
}</pre>
  <p>Payloads in events never carry the bearer token.</p>
</body>
</html>`
