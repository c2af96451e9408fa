// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"review_insights/internal/domain"
)

// ReportSource is the read side the handlers need; *app.ReportService
// satisfies it.
type ReportSource interface {
	Get(ctx context.Context, kind domain.ReportKind) (domain.Report, error)
}

type Handlers struct{ Reports ReportSource }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// fetchFailedDetail is the only failure text clients ever see.
const fetchFailedDetail = "Failed to fetch report data"

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	// Timeout sits on the route group, not the router: chi must finish
	// routing on the request goroutine before http.TimeoutHandler starts its
	// own, so Metrics and Logger can read the route pattern afterwards.
	s.mux.Group(func(r chi.Router) {
		r.Use(Timeout(s.timeout))
		r.Get("/api/reviews", h.report(domain.KindReviews))
		r.Get("/api/statistics", h.report(domain.KindStatistics))
		r.Get("/api/features", h.report(domain.KindFeatures))
		r.Get("/api/strengths", h.report(domain.KindStrengths))
		r.Get("/api/trends", h.report(domain.KindTrends))
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body, nil
}

func (h *Handlers) report(kind domain.ReportKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := h.Reports.Get(r.Context(), kind)
		if err != nil {
			// cause is logged by the service; clients get the fixed body
			writeProblem(w, http.StatusInternalServerError, "Internal Server Error", fetchFailedDetail)
			return
		}

		etag, body, err := calcETagAndBody(rep)
		if err != nil {
			log.Error().Err(err).Str("kind", kind.String()).Msg("failed to marshal report")
			writeProblem(w, http.StatusInternalServerError, "Internal Server Error", fetchFailedDetail)
			return
		}
		// If client already has this version, short-circuit.
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag) // include ETag on 304
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			log.Error().Err(err).Str("kind", kind.String()).Msg("failed to write report body")
		}
	}
}
