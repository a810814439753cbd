package views

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
)

// GateState is the secret-key state of one detail session.
type GateState int

const (
	Viewing GateState = iota
	SecretKeyPrompt
	Editing
	Deleted
)

func (s GateState) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case SecretKeyPrompt:
		return "secret_key_prompt"
	case Editing:
		return "editing"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON responses.
func (s GateState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PendingAction is the mutation waiting behind the secret prompt.
type PendingAction int

const (
	ActionNone PendingAction = iota
	ActionEdit
	ActionDelete
)

func (a PendingAction) String() string {
	switch a {
	case ActionEdit:
		return "edit"
	case ActionDelete:
		return "delete"
	default:
		return "none"
	}
}

// ErrInvalidTransition is returned when an action is not allowed in the
// current gate state.
var ErrInvalidTransition = errors.New("action not allowed in the current state")

// SecretGate guards edit and delete behind the fact's secret key:
//
//	Viewing -> SecretKeyPrompt -> Viewing   (wrong key or cancel)
//	                           -> Editing   (correct key, edit)
//	                           -> Deleted   (correct key, delete succeeded)
type SecretGate struct {
	mu     sync.Mutex
	state  GateState
	action PendingAction
}

// State returns the current state and the pending action.
func (g *SecretGate) State() (GateState, PendingAction) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.action
}

// RequestEdit shows the prompt for an edit. No remote call is made.
func (g *SecretGate) RequestEdit() error {
	return g.request(ActionEdit)
}

// RequestDelete shows the prompt for a delete. No remote call is made.
func (g *SecretGate) RequestDelete() error {
	return g.request(ActionDelete)
}

func (g *SecretGate) request(action PendingAction) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Viewing && g.state != SecretKeyPrompt {
		return fmt.Errorf("request %s while %s: %w", action, g.state, ErrInvalidTransition)
	}
	g.state = SecretKeyPrompt
	g.action = action
	return nil
}

// Verify compares the trimmed candidate with secret. A mismatch returns to
// Viewing with an AuthorizationFailed error and the candidate is dropped. A
// match on edit moves to Editing. A match on delete keeps the prompt until
// the caller reports the outcome with DeleteSucceeded or DeleteFailed.
func (g *SecretGate) Verify(candidate, secret string) (PendingAction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != SecretKeyPrompt {
		return ActionNone, fmt.Errorf("verify while %s: %w", g.state, ErrInvalidTransition)
	}

	if strings.TrimSpace(candidate) != secret {
		g.state = Viewing
		g.action = ActionNone
		return ActionNone, apperrors.NewAuthorization("incorrect secret key")
	}

	action := g.action
	if action == ActionEdit {
		g.state = Editing
		g.action = ActionNone
	}
	return action, nil
}

// Cancel abandons the prompt or an edit in progress.
func (g *SecretGate) Cancel() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case SecretKeyPrompt, Editing:
		g.state = Viewing
		g.action = ActionNone
		return nil
	case Viewing:
		return nil
	}
	return fmt.Errorf("cancel while %s: %w", g.state, ErrInvalidTransition)
}

// EditSaved returns from Editing to Viewing.
func (g *SecretGate) EditSaved() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Editing {
		g.state = Viewing
	}
}

// DeleteSucceeded is terminal.
func (g *SecretGate) DeleteSucceeded() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = Deleted
	g.action = ActionNone
}

// DeleteFailed returns to Viewing.
func (g *SecretGate) DeleteFailed() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Deleted {
		g.state = Viewing
		g.action = ActionNone
	}
}

// Reset returns to Viewing for a newly focused fact.
func (g *SecretGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = Viewing
	g.action = ActionNone
}
