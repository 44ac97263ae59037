/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/resources, /api/projects, /api/snapshot   Live data
  /api/assignments/*, /api/allocations/*         Live edits
  /api/utilization/*, /api/classify              Figures
  /api/simulation/*                              What-if scenarios
  /api/demos/*, /api/reset                       Demo data (dev only)
  /*                                             Static files (frontend)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultOrigins are the dev-server origins allowed when none are configured.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", h.GetSnapshot)
		r.Get("/resources", h.ListResources)
		r.Get("/projects", h.ListProjects)
		r.Post("/refresh", h.Refresh)

		r.Route("/assignments", func(r chi.Router) {
			r.Post("/", h.CreateAssignments)
			r.Delete("/{id}", h.DeleteAssignment)
		})

		r.Route("/allocations", func(r chi.Router) {
			r.Put("/", h.SetAllocation)
			r.Post("/bulk", h.BulkAllocate)
			r.Get("/pending", h.ListPending)
			r.Post("/retry", h.RetryPending)
		})

		r.Route("/utilization", func(r chi.Router) {
			r.Get("/", h.GetUtilization)
			r.Get("/series", h.GetSeries)
			r.Get("/grid", h.GetGrid)
		})
		r.Get("/classify", h.Classify)

		r.Route("/simulation", func(r chi.Router) {
			r.Get("/", h.GetSimulation)
			r.Post("/new", h.NewSimulation)
			r.Post("/import", h.ImportLive)
			r.Post("/actions", h.ApplyAction)
			r.Post("/save", h.SaveSimulation)
			r.Post("/load", h.LoadSimulation)
			r.Get("/saved", h.ListSavedSimulations)
			r.Get("/financials", h.GetFinancials)
			r.Get("/utilization", h.GetSimulationUtilization)
			r.Get("/grid", h.GetSimulationGrid)
		})

		r.Route("/demos", func(r chi.Router) {
			r.Get("/", h.ListDemos)
			r.Get("/current", h.GetCurrentDemo)
			r.Post("/load", h.LoadDemo)
		})
		r.Post("/reset", h.ResetDatabase)
	})

	// Serve the built frontend when present, falling back to index.html for
	// client-side routing.
	staticDir := "./web/dist"
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		exe, _ := os.Executable()
		staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, r.URL.Path)
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Staffing Planner</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Staffing Planner API</h1>
<p>The frontend is not built.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/resources">/api/resources</a> - List resources</li>
<li><a href="/api/utilization/grid?start=2024-06-03&end=2024-06-28&granularity=week">/api/utilization/grid</a> - Utilization grid</li>
<li><a href="/api/demos">/api/demos</a> - List demo data sets</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
