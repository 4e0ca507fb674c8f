// Package mockserver serves canned responses on the analysis endpoint
// contract so the client can be exercised without the real service.
package mockserver

import (
	"encoding/json"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"debatetui/internal/analysis"
)

// FailTopic makes the server answer with success=false, for exercising the
// rejected path end to end.
const FailTopic = "fail"

type Options struct {
	Delay          time.Duration
	AllowedOrigins []string
	Logger         *zap.Logger
}

type Server struct {
	delay  time.Duration
	logger *zap.Logger
}

func New(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	s := &Server{delay: opts.Delay, logger: logger}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	mux.Get(analysis.HealthPath, s.handleHealth)
	mux.Post(analysis.AnalyzePath, s.handleAnalyze)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Topic string `json:"topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "request body must be {\"topic\": string}"})
		return
	}
	topic := strings.TrimSpace(body.Topic)
	if topic == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Topic is required"})
		return
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}
	s.logger.Info("mock analyze", zap.String("topic", topic))

	if strings.EqualFold(topic, FailTopic) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "data": nil, "saved_to": ""})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"data":     cannedDebate(topic),
		"saved_to": SavedPath(topic),
	})
}

// SavedPath is the location a result for topic is reported under:
// results/<lowercased topic with non-alphanumerics as underscores>.json.
func SavedPath(topic string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(topic) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return path.Join("results", b.String()+".json")
}

func cannedDebate(topic string) map[string]any {
	side := func(id, label string) map[string]any {
		return map[string]any{
			"id":    id,
			"label": label,
			"arguments": []string{
				"Placeholder " + label + " argument about " + topic + ".",
				"Second placeholder " + label + " argument.",
			},
			"sources": []string{"https://example.com/" + label},
		}
	}
	return map[string]any{
		"topic": topic,
		"sides": []any{side("A", "liberal"), side("B", "conservative")},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
