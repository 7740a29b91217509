package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cbcgrab/internal/app"
	"cbcgrab/internal/domain"
	"cbcgrab/internal/httpjson"
)

// ResolveHandler exposes synchronous resolution for callers that don't want
// the job queue. Long-running downloads still go through jobs.
type ResolveHandler struct {
	resolver *app.Resolver
}

func NewResolveHandler(resolver *app.Resolver) *ResolveHandler {
	return &ResolveHandler{resolver: resolver}
}

func (h *ResolveHandler) Routes(r chi.Router) {
	r.Post("/resolve", h.resolve)
	r.Get("/shows/{slug}/feed", h.showFeed)
}

func (h *ResolveHandler) resolve(w http.ResponseWriter, r *http.Request) {
	var p app.ResolveParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if p.URL == "" {
		httpjson.WriteError(w, http.StatusBadRequest, "missing url")
		return
	}

	res, err := h.resolver.ResolveStory(r.Context(), p.URL, app.Options{
		ShowOverride:    p.Show,
		FeedURLOverride: p.FeedURL,
		TitleOverride:   p.Title,
		Provider:        p.Provider,
		IgnoreCache:     p.IgnoreCache,
	})
	if err != nil {
		httpjson.WriteError(w, statusFor(err), err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

func (h *ResolveHandler) showFeed(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	feed, err := h.resolver.ResolveShow(r.Context(), slug, app.Options{
		IgnoreCache: r.URL.Query().Get("refresh") == "1",
	})
	if err != nil {
		httpjson.WriteError(w, statusFor(err), err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, feed)
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidParams:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindNotConfident:
		return http.StatusUnprocessableEntity
	case domain.KindFetch:
		return http.StatusBadGateway
	case domain.KindParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
