// internal/app/features/friend/routes.go
package friend

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeFriend)
	return r
}
