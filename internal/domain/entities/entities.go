package entities

// ErrorResponse is the standard error body returned by the API. The
// request ID lets callers quote the failing request when reporting it.
type ErrorResponse struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"requestId,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
