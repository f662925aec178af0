package lookup

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"vinscan-service/internal/domain/vin"
)

type fakeInventory struct {
	vehicles   map[string]*vin.VehicleSummary
	findErr    error
	findCalls  int
	moved      []int64
	created    []string
	arrivals   []string
	started    chan struct{}
	lookupGate chan struct{}
}

func (f *fakeInventory) FindByVin(ctx context.Context, normalized string) (*vin.VehicleSummary, error) {
	f.findCalls++
	if f.started != nil {
		close(f.started)
	}
	if f.lookupGate != nil {
		<-f.lookupGate
	}
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.vehicles[normalized], nil
}

func (f *fakeInventory) MoveToInventory(ctx context.Context, existingID int64, targetLocation string) error {
	f.moved = append(f.moved, existingID)
	return nil
}

func (f *fakeInventory) CreateInventoryEntry(ctx context.Context, record vin.VinRecord, result vin.RecognitionResult) error {
	f.created = append(f.created, record.Normalized)
	return nil
}

func (f *fakeInventory) CreateArrivalEntry(ctx context.Context, record vin.VinRecord, result vin.RecognitionResult) error {
	f.arrivals = append(f.arrivals, record.Normalized)
	return nil
}

func resultWithVin(normalized string) vin.RecognitionResult {
	return vin.RecognitionResult{
		Vin:        &vin.VinRecord{Raw: normalized, Normalized: normalized, ChecksumValid: true},
		Confidence: 0.7,
	}
}

func TestRouterRefusesWithoutVin(t *testing.T) {
	r := NewRouter(&fakeInventory{}, zerolog.Nop())

	_, err := r.Check(context.Background(), vin.RecognitionResult{})
	if !errors.Is(err, ErrNoVin) {
		t.Fatalf("err = %v, want ErrNoVin", err)
	}
	if r.State() != StateIdle {
		t.Errorf("state = %s, want idle", r.State())
	}

	_, err = r.Check(context.Background(), vin.RecognitionResult{Vin: &vin.VinRecord{Raw: "SHORT"}})
	if !errors.Is(err, ErrNoVin) {
		t.Fatalf("err = %v, want ErrNoVin for empty normalized", err)
	}
}

func TestRouterFoundAllowsOnlyMove(t *testing.T) {
	inv := &fakeInventory{vehicles: map[string]*vin.VehicleSummary{
		"1HGCM82633A004352": {ID: 7, Vin: "1HGCM82633A004352"},
	}}
	r := NewRouter(inv, zerolog.Nop())

	outcome, err := r.Check(context.Background(), resultWithVin("1HGCM82633A004352"))
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Matched || outcome.ExistingVehicle.ID != 7 {
		t.Fatalf("outcome = %+v, want match with id 7", outcome)
	}
	if r.State() != StateFound {
		t.Fatalf("state = %s, want found", r.State())
	}

	if _, err := r.AddToArrivals(context.Background()); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("AddToArrivals in found state: err = %v, want ErrInvalidDecision", err)
	}
	if _, err := r.AddToInventory(context.Background()); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("AddToInventory in found state: err = %v, want ErrInvalidDecision", err)
	}

	decision, err := r.Move(context.Background(), "lot-b")
	if err != nil {
		t.Fatal(err)
	}
	if decision.Kind != vin.DecisionMoveToInventory || decision.ExistingID != 7 || decision.TargetLocation != "lot-b" {
		t.Fatalf("decision = %+v", decision)
	}
	if len(inv.moved) != 1 || inv.moved[0] != 7 {
		t.Fatalf("moved = %v", inv.moved)
	}
}

func TestRouterNotFoundDecisionsAreExclusive(t *testing.T) {
	inv := &fakeInventory{}
	r := NewRouter(inv, zerolog.Nop())

	if _, err := r.Check(context.Background(), resultWithVin("5GZCZ43D13S812715")); err != nil {
		t.Fatal(err)
	}
	if r.State() != StateNotFound {
		t.Fatalf("state = %s, want not_found", r.State())
	}
	if _, err := r.Move(context.Background(), "lot-a"); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("Move in not_found state: err = %v, want ErrInvalidDecision", err)
	}

	if _, err := r.AddToArrivals(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(inv.arrivals) != 1 || inv.arrivals[0] != "5GZCZ43D13S812715" {
		t.Fatalf("arrivals = %v", inv.arrivals)
	}

	// The session is closed; the second decision must be rejected.
	if _, err := r.AddToInventory(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("second decision: err = %v, want ErrSessionClosed", err)
	}
	if len(inv.created) != 0 {
		t.Fatalf("created = %v, want none", inv.created)
	}
}

func TestRouterSingleLookupPerSession(t *testing.T) {
	inv := &fakeInventory{}
	r := NewRouter(inv, zerolog.Nop())

	if _, err := r.Check(context.Background(), resultWithVin("5GZCZ43D13S812715")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Check(context.Background(), resultWithVin("5GZCZ43D13S812715")); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("second Check: err = %v, want ErrInvalidDecision", err)
	}
	if inv.findCalls != 1 {
		t.Fatalf("findCalls = %d, want 1", inv.findCalls)
	}
}

func TestRouterLookupFailureIsRetryable(t *testing.T) {
	inv := &fakeInventory{findErr: errors.New("connection refused")}
	r := NewRouter(inv, zerolog.Nop())

	_, err := r.Check(context.Background(), resultWithVin("5GZCZ43D13S812715"))
	if !errors.Is(err, ErrLookupFailed) {
		t.Fatalf("err = %v, want ErrLookupFailed", err)
	}

	inv.findErr = nil
	if _, err := r.Check(context.Background(), resultWithVin("5GZCZ43D13S812715")); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if inv.findCalls != 2 {
		t.Fatalf("findCalls = %d, want 2", inv.findCalls)
	}
}

func TestRouterCancelDiscardsInFlightLookup(t *testing.T) {
	inv := &fakeInventory{
		vehicles:   map[string]*vin.VehicleSummary{"1HGCM82633A004352": {ID: 3}},
		started:    make(chan struct{}),
		lookupGate: make(chan struct{}),
	}
	r := NewRouter(inv, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := r.Check(context.Background(), resultWithVin("1HGCM82633A004352"))
		done <- err
	}()

	// Cancel while the lookup is blocked in flight, then release it.
	<-inv.started
	if _, err := r.Cancel(); err != nil {
		t.Fatal(err)
	}
	close(inv.lookupGate)

	if err := <-done; !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("in-flight lookup err = %v, want ErrSessionClosed", err)
	}
	if got := r.Decision(); got == nil || got.Kind != vin.DecisionCancelled {
		t.Fatalf("decision = %+v, want cancelled", got)
	}
	if r.Outcome() != nil {
		t.Fatal("outcome should be discarded after cancel")
	}
}

func TestRouterCancelIsTerminal(t *testing.T) {
	r := NewRouter(&fakeInventory{}, zerolog.Nop())
	if _, err := r.Cancel(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Cancel(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("second cancel: err = %v, want ErrSessionClosed", err)
	}
	if _, err := r.Check(context.Background(), resultWithVin("1HGCM82633A004352")); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("check after cancel: err = %v, want ErrSessionClosed", err)
	}
}
