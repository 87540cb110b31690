// Package session guards checkout behind an open register shift.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/Mani87-nq/yardbooks-pos/internal/backend"
	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

// ErrNoTerminals is returned when a shift is opened with no registers configured.
var ErrNoTerminals = errors.New("no terminals configured")

// ErrInvalidInput is returned when the open-shift payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Blocked reports whether checkout, hold and void must be disabled: true iff
// a session is required and none is open.
func Blocked(requireOpenSession bool, current *pos.Session) bool {
	return requireOpenSession && current == nil
}

// Gate reads and opens register shifts through the business backend. The
// engine never closes a session itself.
type Gate struct {
	B backend.Backend
}

// Current returns the open session, or nil when none exists. With several
// open sessions the first reported by the backend wins.
func (g *Gate) Current(ctx context.Context) (*pos.Session, error) {
	if g == nil || g.B == nil {
		return nil, errors.New("session gate not configured")
	}
	sessions, err := g.B.ListOpenSessions(ctx)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	current := sessions[0]
	return &current, nil
}

// Open starts a register shift on the chosen terminal with an opening cash
// float. It requires at least one configured terminal.
func (g *Gate) Open(ctx context.Context, terminalID, cashierName string, openingCash pos.Money) (pos.Session, error) {
	if g == nil || g.B == nil {
		return pos.Session{}, errors.New("session gate not configured")
	}
	if strings.TrimSpace(terminalID) == "" {
		return pos.Session{}, ErrInvalidInput
	}
	if openingCash < 0 {
		return pos.Session{}, ErrInvalidInput
	}
	terminals, err := g.B.ListTerminals(ctx, backend.TerminalFilter{ActiveOnly: true})
	if err != nil {
		return pos.Session{}, err
	}
	if len(terminals) == 0 {
		return pos.Session{}, ErrNoTerminals
	}
	return g.B.CreateSession(ctx, backend.CreateSessionInput{
		TerminalID:  strings.TrimSpace(terminalID),
		CashierName: strings.TrimSpace(cashierName),
		OpeningCash: openingCash,
	})
}
