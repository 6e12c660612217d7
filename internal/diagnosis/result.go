package diagnosis

import "net/http"

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Result is the response envelope shared by both stages.
type Result[T any] struct {
	Status  string `json:"status"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Ok wraps validated data in a success envelope.
func Ok[T any](data T) (int, Result[T]) {
	return http.StatusOK, Result[T]{Status: StatusSuccess, Data: data}
}

// Fail turns an error into a failure envelope. Operational errors keep their
// status and message; anything else becomes a generic 500.
func Fail(err error) (int, Result[any]) {
	if e, ok := AsError(err); ok {
		return e.Status, Result[any]{Status: statusFor(e.Status), Message: e.Message}
	}
	return http.StatusInternalServerError, Result[any]{Status: StatusError, Message: "Something went wrong. Please try again later."}
}

// FailWith builds a failure envelope for errors raised outside the pipeline
// (request decoding, missing subject).
func FailWith(status int, message string) (int, Result[any]) {
	return status, Result[any]{Status: statusFor(status), Message: message}
}

func statusFor(code int) string {
	if code >= 400 && code < 500 {
		return StatusFail
	}
	return StatusError
}
