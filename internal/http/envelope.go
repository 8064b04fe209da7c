package http

import (
	"encoding/json"
	"net/http"

	"orgfees/internal/core"
	"orgfees/internal/log"
)

// Envelope wraps every JSON response body.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

const (
	errorBadRequest   = "bad_request"
	errorUnauthorized = "unauthorized"
	errorRateLimited  = "rate_limited"
	errorInternal     = "internal_error"

	messageInternal = "Internal server error"
)

// ResponseBuilder assembles an enveloped JSON response.
type ResponseBuilder struct {
	statusCode int
	envelope   Envelope
	cookies    []*http.Cookie
}

// NewResponse starts a successful 200 response.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{statusCode: http.StatusOK, envelope: Envelope{Success: true}}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Data(data any) *ResponseBuilder {
	b.envelope.Data = data
	return b
}

func (b *ResponseBuilder) Message(msg string) *ResponseBuilder {
	b.envelope.Message = msg
	return b
}

// Fail marks the envelope unsuccessful with a message and error code.
func (b *ResponseBuilder) Fail(message, code string) *ResponseBuilder {
	b.envelope.Success = false
	b.envelope.Data = nil
	b.envelope.Message = message
	b.envelope.Error = code
	return b
}

func (b *ResponseBuilder) Cookie(c *http.Cookie) *ResponseBuilder {
	b.cookies = append(b.cookies, c)
	return b
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for _, c := range b.cookies {
		http.SetCookie(w, c)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.envelope)
}

// Rejected reports an expected refusal. Rejections travel as HTTP 200 with
// success false; clients inspect the envelope, not the status.
func Rejected(rej *core.Rejection) *ResponseBuilder {
	return NewResponse().Fail(rej.Reason, string(rej.Kind))
}

func BadRequest(message string) *ResponseBuilder {
	return NewResponse().Status(http.StatusBadRequest).Fail(message, errorBadRequest)
}

func Unauthorized() *ResponseBuilder {
	return NewResponse().Status(http.StatusUnauthorized).Fail("Unauthorized", errorUnauthorized)
}

func TooManyRequests() *ResponseBuilder {
	return NewResponse().Status(http.StatusTooManyRequests).Fail("Rate limit exceeded, try again later", errorRateLimited)
}

func InternalError() *ResponseBuilder {
	return NewResponse().Status(http.StatusInternalServerError).Fail(messageInternal, errorInternal)
}

// writeResult sends data on success. Rejections become failure envelopes and
// anything else is logged in full and answered with a generic 500.
func writeResult(w http.ResponseWriter, r *http.Request, op string, data any, err error) {
	if err == nil {
		NewResponse().Data(data).Write(w)
		return
	}
	if rej, ok := core.AsRejection(err); ok {
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).InfoContext(r.Context(), "Request rejected",
			log.FieldOperation, op,
			log.FieldReason, rej.Reason,
			log.FieldErrorType, string(rej.Kind))
		Rejected(rej).Write(w)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)).
		LogError(r.Context(), "Request failed", err, op, log.NewFields().WithErrorType(log.ErrorTypeInternal))
	InternalError().Write(w)
}

func writeUnauthorized(w http.ResponseWriter, _ *http.Request) {
	Unauthorized().Write(w)
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	TooManyRequests().Write(w)
}
