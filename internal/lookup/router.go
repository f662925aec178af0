package lookup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"vinscan-service/internal/domain/vin"
)

// State of a routing session.
type State string

const (
	StateIdle     State = "idle"
	StateChecking State = "checking"
	StateFound    State = "found"
	StateNotFound State = "not_found"
	StateClosed   State = "closed"
)

var (
	// ErrNoVin means the recognition result carried no normalized VIN, so
	// there is nothing to look up. The session requires manual entry.
	ErrNoVin = errors.New("no normalized vin to look up")
	// ErrLookupFailed wraps inventory query errors. Retryable: the
	// recognition result is preserved so the lookup can be reissued
	// without re-scanning.
	ErrLookupFailed = errors.New("inventory lookup failed")
	// ErrInvalidDecision is returned when the requested decision is not
	// legal in the session's current state.
	ErrInvalidDecision = errors.New("decision not allowed in current state")
	// ErrSessionClosed is returned when a terminal decision was already
	// emitted for the session.
	ErrSessionClosed = errors.New("session already closed")
)

// Router drives one scan session from recognition result to a single terminal
// decision. Allowed transitions:
//
//	idle -> checking -> found     -> move_to_inventory
//	                 -> not_found -> add_to_inventory | add_to_new_arrivals
//	any non-closed state          -> cancelled
type Router struct {
	inventory Inventory
	log       zerolog.Logger

	mu        sync.Mutex
	state     State
	result    vin.RecognitionResult
	outcome   *vin.LookupOutcome
	decision  *vin.Decision
	cancelled bool
}

func NewRouter(inventory Inventory, log zerolog.Logger) *Router {
	return &Router{inventory: inventory, log: log, state: StateIdle}
}

// State returns the session's current state.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Outcome returns the lookup outcome, or nil before Check completed.
func (r *Router) Outcome() *vin.LookupOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome
}

// Decision returns the emitted terminal decision, or nil while the session is
// open.
func (r *Router) Decision() *vin.Decision {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decision
}

// Check issues the single inventory query for the session. It refuses to run
// when the result carries no normalized VIN, when the session is closed, or
// when a lookup already happened.
func (r *Router) Check(ctx context.Context, result vin.RecognitionResult) (*vin.LookupOutcome, error) {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		if r.state == StateClosed {
			return nil, ErrSessionClosed
		}
		return nil, fmt.Errorf("%w: lookup already performed", ErrInvalidDecision)
	}
	if result.Vin == nil || result.Vin.Normalized == "" {
		r.mu.Unlock()
		return nil, ErrNoVin
	}
	r.state = StateChecking
	r.result = result
	r.mu.Unlock()

	summary, err := r.inventory.FindByVin(ctx, result.Vin.Normalized)

	r.mu.Lock()
	defer r.mu.Unlock()

	// The session may have been cancelled while the query was in flight;
	// a late result must not resurrect it.
	if r.cancelled {
		r.log.Debug().Str("vin", result.Vin.Normalized).Msg("discarding lookup result for cancelled session")
		return nil, ErrSessionClosed
	}

	if err != nil {
		r.state = StateIdle
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	outcome := &vin.LookupOutcome{Matched: summary != nil, ExistingVehicle: summary}
	r.outcome = outcome
	if summary != nil {
		r.state = StateFound
	} else {
		r.state = StateNotFound
	}
	return outcome, nil
}

// Move emits MoveToInventory. Legal only in the found state.
func (r *Router) Move(ctx context.Context, targetLocation string) (*vin.Decision, error) {
	r.mu.Lock()
	if r.state != StateFound {
		err := r.illegal(vin.DecisionMoveToInventory)
		r.mu.Unlock()
		return nil, err
	}
	existingID := r.outcome.ExistingVehicle.ID
	normalized := r.result.Vin.Normalized
	r.mu.Unlock()

	if err := r.inventory.MoveToInventory(ctx, existingID, targetLocation); err != nil {
		return nil, fmt.Errorf("move vehicle %d: %w", existingID, err)
	}

	return r.close(vin.Decision{
		Kind:           vin.DecisionMoveToInventory,
		ExistingID:     existingID,
		TargetLocation: targetLocation,
		Vin:            normalized,
	})
}

// AddToInventory emits AddDirectlyToInventory. Legal only in the not-found
// state.
func (r *Router) AddToInventory(ctx context.Context) (*vin.Decision, error) {
	return r.add(ctx, vin.DecisionAddDirectlyToInventory)
}

// AddToArrivals emits AddToNewArrivals. Legal only in the not-found state.
func (r *Router) AddToArrivals(ctx context.Context) (*vin.Decision, error) {
	return r.add(ctx, vin.DecisionAddToNewArrivals)
}

func (r *Router) add(ctx context.Context, kind vin.DecisionKind) (*vin.Decision, error) {
	r.mu.Lock()
	if r.state != StateNotFound {
		err := r.illegal(kind)
		r.mu.Unlock()
		return nil, err
	}
	record := *r.result.Vin
	result := r.result
	r.mu.Unlock()

	var err error
	if kind == vin.DecisionAddDirectlyToInventory {
		err = r.inventory.CreateInventoryEntry(ctx, record, result)
	} else {
		err = r.inventory.CreateArrivalEntry(ctx, record, result)
	}
	if err != nil {
		return nil, fmt.Errorf("create entry for %s: %w", record.Normalized, err)
	}

	return r.close(vin.Decision{Kind: kind, Vin: record.Normalized})
}

// Cancel closes the session without applying any decision. Session data is
// dropped; an in-flight lookup's result will be discarded when it arrives.
func (r *Router) Cancel() (*vin.Decision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateClosed {
		return nil, ErrSessionClosed
	}

	r.cancelled = true
	r.state = StateClosed
	decision := &vin.Decision{Kind: vin.DecisionCancelled}
	r.decision = decision
	r.result = vin.RecognitionResult{}
	r.outcome = nil
	return decision, nil
}

// close records the single terminal decision, guarding against a second one
// racing in between the unlocked collaborator call and now.
func (r *Router) close(decision vin.Decision) (*vin.Decision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateClosed {
		return nil, ErrSessionClosed
	}
	r.state = StateClosed
	r.decision = &decision
	r.result = vin.RecognitionResult{}
	return &decision, nil
}

func (r *Router) illegal(kind vin.DecisionKind) error {
	if r.state == StateClosed {
		return ErrSessionClosed
	}
	return fmt.Errorf("%w: %s in state %s", ErrInvalidDecision, kind, r.state)
}
