// Package dashboard runs the render cycle: one event, one state change, one view.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/stockdash/internal/models"
)

// EventKind identifies a user interaction.
type EventKind int

const (
	SubmitTicker EventKind = iota
	SelectStatement
	SelectTimeframe
)

func (k EventKind) String() string {
	switch k {
	case SubmitTicker:
		return "submit_ticker"
	case SelectStatement:
		return "select_statement"
	case SelectTimeframe:
		return "select_timeframe"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one user interaction with its payload.
type Event struct {
	Kind  EventKind
	Value string
}

// State is which ticker, statement and timeframe are selected.
type State struct {
	Symbol    string           `json:"symbol"`
	Statement models.Statement `json:"statement"`
	Timeframe models.Timeframe `json:"timeframe"`
}

// NewState returns the state after submitting symbol.
func NewState(symbol string) State {
	return State{
		Symbol:    strings.ToUpper(strings.TrimSpace(symbol)),
		Statement: models.BalanceSheet,
		Timeframe: models.DefaultTimeframe,
	}
}

// Apply returns the state after e. Submitting a ticker resets the selections.
// An invalid statement or timeframe is rejected and s is returned unchanged.
func (s State) Apply(e Event) (State, error) {
	switch e.Kind {
	case SubmitTicker:
		return NewState(e.Value), nil
	case SelectStatement:
		st, err := models.ParseStatement(e.Value)
		if err != nil {
			return s, err
		}
		s.Statement = st
		return s, nil
	case SelectTimeframe:
		tf, err := models.ParseTimeframe(e.Value)
		if err != nil {
			return s, err
		}
		s.Timeframe = tf
		return s, nil
	}
	return s, fmt.Errorf("unknown event %s", e.Kind)
}

// Normalize fills unset or invalid selections with the defaults.
func (s State) Normalize() State {
	s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
	if _, err := models.ParseStatement(string(s.Statement)); err != nil {
		s.Statement = models.BalanceSheet
	}
	if _, err := models.ParseTimeframe(string(s.Timeframe)); err != nil {
		s.Timeframe = models.DefaultTimeframe
	}
	return s
}
