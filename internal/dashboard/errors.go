package dashboard

import (
	"errors"
	"fmt"
)

// User-facing messages.
const (
	MsgEnterTicker = "Enter correct ticker."
	MsgBadTicker   = "Something Wrong with this Ticker. Please try another"
	MsgUnhandled   = "Something went wrong. Please try again later."
	MsgNoPriceData = "No price data available for this timeframe."
	MsgNoNews      = "No recent news found."
)

// ErrEmptySymbol is the cause of a ResolutionError for a blank ticker.
var ErrEmptySymbol = errors.New("empty ticker symbol")

// ResolutionError is an empty or unrecognised ticker. The user can correct it.
type ResolutionError struct {
	Symbol string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve ticker %q: %v", e.Symbol, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// UserMessage is the inline message shown under the ticker input.
func (e *ResolutionError) UserMessage() string {
	if errors.Is(e.Err, ErrEmptySymbol) {
		return MsgEnterTicker
	}
	return MsgBadTicker
}

// UnhandledError is any other failure of the render cycle. It has been recorded
// in the error log; the user only sees a generic message.
type UnhandledError struct {
	Err error
}

func (e *UnhandledError) Error() string {
	return "render failed: " + e.Err.Error()
}

func (e *UnhandledError) Unwrap() error { return e.Err }

// UserMessage hides the cause.
func (e *UnhandledError) UserMessage() string { return MsgUnhandled }

// UserMessage returns the message to show for err, or "" when err is nil.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.UserMessage()
	}
	return MsgUnhandled
}
