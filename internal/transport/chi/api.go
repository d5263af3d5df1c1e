package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/outing/internal/domain/mapdata"
	"github.com/kailas-cloud/outing/internal/domain/weather"
)

// ErrorResponseCode is the machine-readable error code.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest       ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnauthorized     ErrorResponseCode = "unauthorized"
	ErrorResponseCodeNotFound         ErrorResponseCode = "not_found"
	ErrorResponseCodeInternalError    ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// ChatMessageRequest is the POST /chat/message body.
type ChatMessageRequest struct {
	Message        string  `json:"message"`
	ConversationID *string `json:"conversationId,omitempty"`
}

// ChatMessageResponse is the assistant turn.
type ChatMessageResponse struct {
	Role           string             `json:"role"`
	Content        string             `json:"content"`
	Type           string             `json:"type"`
	MapData        *mapdata.MarkerSet `json:"mapData,omitempty"`
	ConversationID string             `json:"conversationId"`
	ToolsUsed      []string           `json:"toolsUsed"`
}

// ClearHistoryResponse confirms a cleared conversation.
type ClearHistoryResponse struct {
	ConversationID string `json:"conversationId"`
	Cleared        bool   `json:"cleared"`
}

// SessionCountResponse is the GET /chat/sessions/count body.
type SessionCountResponse struct {
	Count int `json:"count"`
}

// FacilitySearchRequest is the POST /rag/search body.
type FacilitySearchRequest struct {
	Query      string  `json:"query"`
	TopK       *int    `json:"topK,omitempty"`
	RegionCity *string `json:"regionCity,omitempty"`
	RegionGu   *string `json:"regionGu,omitempty"`
	Category1  *string `json:"category1,omitempty"`
	InOut      *string `json:"inOut,omitempty"`
}

// FacilityItem is one search hit.
type FacilityItem struct {
	ID         string             `json:"id"`
	Content    string             `json:"content"`
	Metadata   map[string]string  `json:"metadata"`
	Numerics   map[string]float64 `json:"numerics,omitempty"`
	Similarity float64            `json:"similarity"`
	Relevance  *float64           `json:"relevance,omitempty"`
}

// FacilitySearchResponse is the POST /rag/search body.
type FacilitySearchResponse struct {
	Results []FacilityItem `json:"results"`
	Count   int            `json:"count"`
}

// GetCurrentWeatherParams are the GET /weather/current query parameters.
type GetCurrentWeatherParams struct {
	Location string  `form:"location" json:"location"`
	Date     *string `form:"date,omitempty" json:"date,omitempty"`
}

// WeatherResponse is the GET /weather/current body.
type WeatherResponse = weather.Report

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status     string            `json:"status"`
	Checks     map[string]string `json:"checks"`
	Facilities int               `json:"facilities"`
	Version    string            `json:"version"`
}

// ServerInterface lists every route handler.
type ServerInterface interface {
	// (POST /chat/message)
	SendChatMessage(w http.ResponseWriter, r *http.Request)
	// (DELETE /chat/history/{conversationId})
	ClearChatHistory(w http.ResponseWriter, r *http.Request, conversationID string)
	// (GET /chat/sessions/count)
	CountChatSessions(w http.ResponseWriter, r *http.Request)
	// (POST /rag/search)
	SearchFacilities(w http.ResponseWriter, r *http.Request)
	// (GET /weather/current)
	GetCurrentWeather(w http.ResponseWriter, r *http.Request, params GetCurrentWeatherParams)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError is reported when a parameter fails to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ServerInterfaceWrapper binds parameters before calling the handler.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// ClearChatHistory binds the conversationId path parameter.
func (siw *ServerInterfaceWrapper) ClearChatHistory(w http.ResponseWriter, r *http.Request) {
	var conversationID string
	err := runtime.BindStyledParameterWithOptions("simple", "conversationId", chi.URLParam(r, "conversationId"),
		&conversationID, runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "conversationId", Err: err})
		return
	}
	siw.Handler.ClearChatHistory(w, r, conversationID)
}

// GetCurrentWeather binds the location and date query parameters.
func (siw *ServerInterfaceWrapper) GetCurrentWeather(w http.ResponseWriter, r *http.Request) {
	var params GetCurrentWeatherParams

	if err := runtime.BindQueryParameter("form", true, true, "location", r.URL.Query(), &params.Location); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "location", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "date", r.URL.Query(), &params.Date); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "date", Err: err})
		return
	}

	siw.Handler.GetCurrentWeather(w, r, params)
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts every route on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		}
	}
	wrapper := ServerInterfaceWrapper{Handler: si, ErrorHandlerFunc: options.ErrorHandlerFunc}

	r.Post("/chat/message", si.SendChatMessage)
	r.Delete("/chat/history/{conversationId}", wrapper.ClearChatHistory)
	r.Get("/chat/sessions/count", si.CountChatSessions)
	r.Post("/rag/search", si.SearchFacilities)
	r.Get("/weather/current", wrapper.GetCurrentWeather)
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)
	return r
}
