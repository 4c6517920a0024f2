package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const CoursesPath = "/api/courses"

// NewRouter wires the course endpoint in front of the static file server.
// Middlewares run in the order given. Methods other than GET and HEAD are
// answered with 501.
func NewRouter(h *Handler, middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares...)

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, fmt.Sprintf("Unsupported method ('%s')", req.Method), http.StatusNotImplemented)
	})

	r.Get(CoursesPath, h.Courses)

	r.Get("/*", h.Static)
	r.Head("/*", h.Static)

	return r
}
