package mtproto

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// TimeoutCode is the code carried by TimeoutError.
const TimeoutCode = 500

// ErrTimeout matches any *TimeoutError via errors.Is.
var ErrTimeout = errors.New("request timeout")

// TimeoutError is returned when the engine did not settle a call before its
// deadline.
type TimeoutError struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Method  string        `json:"method"`
	After   time.Duration `json:"-"`
}

func newTimeoutError(method string, after time.Duration) *TimeoutError {
	return &TimeoutError{
		Code:    TimeoutCode,
		Message: "Timeout",
		Method:  method,
		After:   after,
	}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s (code %d) after %s", e.Method, e.Message, e.Code, e.After)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
