/*
Package response renders every API reply in one envelope.

HTTP status codes are chosen here and nowhere else. Internal errors are
returned as "internal server error"; the real error goes to the log only.

	success: { success: true, data: {...}, message: "...", code: 200, request_id: "..." }
	failure: { success: false, error: "ERROR_CODE", message: "...", code: 4xx/5xx, request_id: "..." }
*/
package response

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

// ListResponse wraps collections with their size.
type ListResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Count     int         `json:"count"`
	Message   string      `json:"message"`
	Code      int         `json:"code"`
	RequestID string      `json:"request_id,omitempty"`
}
