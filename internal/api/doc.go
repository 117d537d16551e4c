// Package api hosts the HTTP server, middleware, and REST handlers. Routes:
//   - GET /healthz and /readyz for container probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /api/analyze, guarded by the x-api-key allow list, returning the
//     localized Markdown document.
//   - the web frontend, mounted at / when configured.
package api
