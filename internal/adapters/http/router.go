package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/docdesk/docdesk/internal/config"
	"github.com/docdesk/docdesk/internal/core/domain"
	"github.com/docdesk/docdesk/internal/core/ports"
	"github.com/docdesk/docdesk/internal/observability/metrics"
)

const serviceName = "docdesk-api"

type Router struct {
	cfg     config.Config
	metrics *metrics.HTTPServerMetrics
	query   ports.QueryService
	topics  ports.TopicReader
}

func NewRouter(
	cfg config.Config,
	serverMetrics *metrics.HTTPServerMetrics,
	query ports.QueryService,
	topics ports.TopicReader,
) *Router {
	return &Router{
		cfg:     cfg,
		metrics: serverMetrics,
		query:   query,
		topics:  topics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", rt.banner)
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/api/chat", rt.chat)
	mux.HandleFunc("/api/topics", rt.listTopics)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	handler := contractValidationMiddleware(mux)
	if rt.cfg.APIMaxConcurrent > 0 {
		wait := time.Duration(rt.cfg.APIBackpressureWaitMS) * time.Millisecond
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, wait)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	}
	handler = corsMiddleware(rt.cfg.CORSAllowedOrigin, handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) banner(w http.ResponseWriter, r *http.Request) {
	// The root pattern also catches unmatched paths.
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service":          serviceName,
		"status":           "ok",
		"available_topics": rt.topicNames(),
		"endpoints": map[string]string{
			"/api/chat":   "POST - Answer a question from the documentation",
			"/api/topics": "GET - List available topics",
		},
	})
}

type chatRequest struct {
	Query string `json:"query"`
}

// chatResponse is the wire shape of an answered query. Topic is a pointer so
// a miss serializes as an explicit null rather than an empty string.
type chatResponse struct {
	Topic           *string           `json:"topic"`
	Response        string            `json:"response"`
	Confidence      int               `json:"confidence"`
	Source          string            `json:"source"`
	Images          []domain.ImageRef `json:"images"`
	AvailableTopics []string          `json:"available_topics,omitempty"`
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No query provided"})
		return
	}

	start := time.Now()
	answer, err := rt.query.AnswerQuery(r.Context(), req.Query)
	if err != nil {
		if domain.IsKind(err, domain.ErrNoQuery) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No query provided"})
			return
		}
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordResolution(serviceName, metrics.ResolutionObservation{
			Source:       string(answer.Source),
			Confidence:   answer.Confidence,
			TopicsScored: answer.Stats.TopicsScored,
			Degraded:     answer.Stats.DegradedVerdicts,
			Skipped:      answer.Stats.SkippedTopics,
			Duration:     time.Since(start),
		})
	}

	writeJSON(w, http.StatusOK, chatResponseFrom(answer))
}

func chatResponseFrom(answer *domain.QueryAnswer) chatResponse {
	resp := chatResponse{
		Response:        answer.Response,
		Confidence:      answer.Confidence,
		Source:          string(answer.Source),
		Images:          answer.Images,
		AvailableTopics: answer.AvailableTopics,
	}
	if resp.Images == nil {
		resp.Images = []domain.ImageRef{}
	}
	if answer.Topic != "" {
		topic := answer.Topic
		resp.Topic = &topic
	}
	return resp
}

func (rt *Router) listTopics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	names := rt.topicNames()
	writeJSON(w, http.StatusOK, map[string]any{
		"topics": names,
		"count":  len(names),
	})
}

func (rt *Router) topicNames() []string {
	names := rt.topics.ListTopics()
	if names == nil {
		names = []string{}
	}
	return names
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
