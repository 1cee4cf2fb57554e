package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/embyx/internal/library"
	"github.com/desertthunder/embyx/internal/shared"
	"github.com/desertthunder/embyx/internal/uri"
)

// searchFields are the query parameters forwarded to [Navigator.Search].
var searchFields = []string{"any", "artist", "album", "track_name"}

type errorBody struct {
	Error string `json:"error"`
}

// LibraryHandler serves the navigator operations as JSON.
type LibraryHandler struct {
	nav Navigator
}

func NewLibraryHandler(nav Navigator) *LibraryHandler {
	return &LibraryHandler{nav: nav}
}

// Register installs every library route on router.
func (h *LibraryHandler) Register(router *BasicRouter) {
	router.Handler(healthHandler{})
	router.HandleFunc(http.MethodGet, "/root", h.Root)
	router.HandleFunc(http.MethodGet, "/browse", h.Browse)
	router.HandleFunc(http.MethodGet, "/lookup", h.Lookup)
	router.HandleFunc(http.MethodGet, "/search", h.Search)
	router.HandleFunc(http.MethodGet, "/images", h.Images)
	router.HandleFunc(http.MethodGet, "/distinct/{field}", h.Distinct)
}

// Root returns the root directory ref.
func (h *LibraryHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.nav.RootRef())
}

// Browse lists the children of ?uri=, defaulting to the root.
func (h *LibraryHandler) Browse(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("uri")
	if u == "" {
		u = uri.Root
	}

	refs, err := h.nav.Browse(r.Context(), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

// Lookup resolves every ?uri= to tracks, keyed by uri.
func (h *LibraryHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	uris := r.URL.Query()["uri"]
	if len(uris) == 0 {
		writeError(w, fmt.Errorf("%w: uri", shared.ErrMissingArgument))
		return
	}

	tracks, err := h.nav.LookupMany(r.Context(), uris)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// Search runs a query built from the any, artist, album and track_name parameters.
func (h *LibraryHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := library.Query{}
	for _, field := range searchFields {
		if terms := params[field]; len(terms) > 0 {
			q[field] = terms
		}
	}
	if len(q) == 0 {
		writeError(w, fmt.Errorf("%w: one of any, artist, album, track_name", shared.ErrMissingArgument))
		return
	}

	res, err := h.nav.Search(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Images returns sized artwork for every ?uri=.
func (h *LibraryHandler) Images(w http.ResponseWriter, r *http.Request) {
	uris := r.URL.Query()["uri"]
	if len(uris) == 0 {
		writeError(w, fmt.Errorf("%w: uri", shared.ErrMissingArgument))
		return
	}

	images, err := h.nav.Images(r.Context(), uris)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// Distinct lists the distinct values of the {field} path segment.
func (h *LibraryHandler) Distinct(w http.ResponseWriter, r *http.Request) {
	values, err := h.nav.Distinct(r.Context(), r.PathValue("field"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

type healthHandler struct{}

func (healthHandler) Routes() []string { return []string{"GET /health"} }

func (healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusFor maps library errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrRootNotFound), errors.Is(err, shared.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrRemoteUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
