package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"path"

	"github.com/HMasataka/logging"
	"github.com/HMasataka/minigolf/internal/course"
)

//go:generate mockgen -source handler.go -destination mock/handler.go

const indexPage = "index.html"

type CourseLister interface {
	List(ctx context.Context) []course.Descriptor
}

var _ CourseLister = (*course.Lister)(nil)

func NewHandler(root string, lister CourseLister) *Handler {
	return &Handler{
		root:   root,
		lister: lister,
		static: http.FileServer(http.Dir(root)),
	}
}

type Handler struct {
	root   string
	lister CourseLister
	static http.Handler
}

// Courses writes the course list as a JSON array. Listing never fails, so
// the status is always 200.
func (h *Handler) Courses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	courses := h.lister.List(ctx)
	if courses == nil {
		courses = []course.Descriptor{}
	}

	body, err := json.Marshal(courses)
	if err != nil {
		slog.Error("failed to encode courses", "error", err)
		body = []byte("[]")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write courses", "error", err)
		return
	}

	if logging.HasLoggingContext(ctx) {
		slog.InfoContext(ctx, "courses listed", slog.Int("count", len(courses)))
	}
}

// Static serves files below the static root.
func (h *Handler) Static(w http.ResponseWriter, r *http.Request) {
	// http.FileServer は .../index.html を ./ へリダイレクトするため、直接返す
	if path.Base(r.URL.Path) == indexPage && h.serveIndex(w, r) {
		return
	}
	h.static.ServeHTTP(w, r)
}

func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) bool {
	name := path.Clean("/" + r.URL.Path)

	f, err := http.Dir(h.root).Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}
