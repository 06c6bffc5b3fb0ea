// internal/app/features/assignments/routes.go
package assignments

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/assignments/run", h.HandleRun)
	r.Get("/participants", h.ServeRoster)
	r.Get("/activity", h.ServeActivity)
	return r
}
