package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/outing/internal/domain"
	"github.com/kailas-cloud/outing/internal/domain/facility"
	"github.com/kailas-cloud/outing/internal/domain/search/filter"
	"github.com/kailas-cloud/outing/internal/domain/search/request"
	"github.com/kailas-cloud/outing/internal/logger"
	chatuc "github.com/kailas-cloud/outing/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/outing/internal/usecase/health"
	"github.com/kailas-cloud/outing/internal/version"
)

const roleAssistant = "assistant"

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface on top of the usecases.
type Server struct {
	chat          ChatService
	search        SearchService
	weather       WeatherService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	chat ChatService,
	search SearchService,
	weather WeatherService,
	health HealthService,
	l *zap.Logger,
) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	s := &Server{
		chat:    chat,
		search:  search,
		weather: weather,
		health:  health,
		logger:  l,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
	}
	return s
}

// SendChatMessage handles POST /chat/message.
func (s *Server) SendChatMessage(w http.ResponseWriter, r *http.Request) {
	var req ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reply, err := s.chat.HandleMessage(r.Context(), req.Message, derefString(req.ConversationID))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, reply.Usage)
	tools := reply.ToolsUsed
	if tools == nil {
		tools = []string{}
	}
	writeJSON(w, http.StatusOK, ChatMessageResponse{
		Role:           roleAssistant,
		Content:        reply.Content,
		Type:           string(reply.Type),
		MapData:        reply.MapData,
		ConversationID: reply.ConversationID,
		ToolsUsed:      tools,
	})
}

// ClearChatHistory handles DELETE /chat/history/{conversationId}.
func (s *Server) ClearChatHistory(w http.ResponseWriter, r *http.Request, conversationID string) {
	if err := s.chat.ClearHistory(r.Context(), conversationID); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ClearHistoryResponse{ConversationID: conversationID, Cleared: true})
}

// CountChatSessions handles GET /chat/sessions/count.
func (s *Server) CountChatSessions(w http.ResponseWriter, r *http.Request) {
	n, err := s.chat.SessionCount(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionCountResponse{Count: n})
}

// SearchFacilities handles POST /rag/search.
func (s *Server) SearchFacilities(w http.ResponseWriter, r *http.Request) {
	var body FacilitySearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := searchRequestFrom(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	docs := s.search.Search(r.Context(), req)
	items := make([]FacilityItem, len(docs))
	for i, d := range docs {
		items[i] = facilityItem(d)
	}
	writeJSON(w, http.StatusOK, FacilitySearchResponse{Results: items, Count: len(items)})
}

// GetCurrentWeather handles GET /weather/current.
func (s *Server) GetCurrentWeather(w http.ResponseWriter, r *http.Request, params GetCurrentWeatherParams) {
	if params.Location == "" {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "location is required")
		return
	}
	writeJSON(w, http.StatusOK, s.weather.LookupText(r.Context(), params.Location, derefString(params.Date)))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:     string(report.Status),
		Checks:     checks,
		Facilities: report.Facilities,
		Version:    version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setUsageHeaders(w http.ResponseWriter, u chatuc.Usage) {
	if u.EmbeddingCalls > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(u.EmbeddingTokens))
	}
	if u.GenerationTokens > 0 {
		w.Header().Set("X-Generation-Tokens", strconv.Itoa(u.GenerationTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrSessionNotFound,
		domain.ErrNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContextOr(r.Context(), s.logger)
	l.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	l.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func searchRequestFrom(body FacilitySearchRequest) (request.Request, error) {
	filters, err := filter.Equal(
		facility.FieldRegionCity, derefString(body.RegionCity),
		facility.FieldRegionGu, derefString(body.RegionGu),
		facility.FieldCategory1, derefString(body.Category1),
		facility.FieldInOut, derefString(body.InOut),
	)
	if err != nil {
		return request.Request{}, err
	}
	return request.New(body.Query, filters, derefInt(body.TopK))
}

func facilityItem(d facility.Document) FacilityItem {
	meta := d.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	return FacilityItem{
		ID:         d.ID,
		Content:    d.Content,
		Metadata:   meta,
		Numerics:   d.Numerics,
		Similarity: d.Similarity,
		Relevance:  d.Relevance,
	}
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
