package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"vinscan-service/internal/camera"
	"vinscan-service/internal/confidence"
	"vinscan-service/internal/domain/vin"
	"vinscan-service/internal/lookup"
	"vinscan-service/internal/metrics"
	"vinscan-service/internal/recognition"
	"vinscan-service/internal/repository"
	"vinscan-service/internal/vincode"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// ScanStore is the persistence surface the service needs for scan events and
// inventory queries.
type ScanStore interface {
	CreateScanEvent(ctx context.Context, event *repository.ScanEvent) error
	FindScanEvents(ctx context.Context, normalizedVin *string, from, to *time.Time, limit, offset int) ([]repository.ScanEvent, error)
	DeleteOldScanEvents(ctx context.Context, days int) (int64, error)
	FindVehiclesByVin(ctx context.Context, normalizedVin string) ([]vin.VehicleSummary, error)
}

// Session is the owned state of one scan, from capture to terminal decision.
// Dropping the session discards its capture data.
type Session struct {
	ID        string
	DeviceID  string
	CreatedAt time.Time
	Candidate vin.OcrCandidate
	Result    vin.RecognitionResult
	Router    *lookup.Router
}

type ScanService struct {
	recognizer recognition.Recognizer
	store      ScanStore
	inventory  lookup.Inventory
	camera     *camera.Manager
	metrics    *metrics.Metrics
	log        zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	byDevice map[string]string
}

func NewScanService(
	recognizer recognition.Recognizer,
	store ScanStore,
	inventory lookup.Inventory,
	cam *camera.Manager,
	m *metrics.Metrics,
	log zerolog.Logger,
) *ScanService {
	return &ScanService{
		recognizer: recognizer,
		store:      store,
		inventory:  inventory,
		camera:     cam,
		metrics:    m,
		log:        log,
		sessions:   make(map[string]*Session),
		byDevice:   make(map[string]string),
	}
}

// ScanOutput is what one pipeline run hands back to the presentation layer.
type ScanOutput struct {
	SessionID   string                `json:"session_id"`
	Result      vin.RecognitionResult `json:"result"`
	Outcome     *vin.LookupOutcome    `json:"outcome,omitempty"`
	State       lookup.State          `json:"state"`
	ManualEntry bool                  `json:"manual_entry_required"`
	LookupError string                `json:"lookup_error,omitempty"`
}

// Scan runs the full pipeline for one capture: recognition with fallback,
// validation, decoding, confidence aggregation and the inventory lookup. A
// new capture supersedes any uncommitted session from the same device.
func (s *ScanService) Scan(ctx context.Context, image []byte, deviceID string) (*ScanOutput, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is required", ErrInvalidInput)
	}
	if deviceID != "" {
		if err := s.camera.Authorize(deviceID); err != nil {
			s.metrics.Scan("permission_denied")
			return nil, err
		}
	}

	s.supersede(deviceID)

	started := time.Now()
	candidate, err := s.recognizer.Recognize(ctx, image)
	if err != nil {
		s.metrics.Scan("extraction_failed")
		s.log.Warn().Err(err).Str("device_id", deviceID).Msg("recognition failed")
		return nil, err
	}

	validation := vincode.Validate(candidate.Text)
	record := &vin.VinRecord{
		Raw:           candidate.Text,
		Normalized:    validation.Normalized,
		ChecksumValid: validation.ChecksumValid,
	}
	if validation.Normalized != "" {
		record.WMI, record.VDS, record.VIS = vincode.Split(validation.Normalized)
		decoded := vincode.Decode(validation.Normalized)
		record.Year = decoded.Year
		record.Country = decoded.Country
		record.Manufacturer = decoded.Manufacturer
	}

	result := confidence.Aggregate(candidate, record)

	session := &Session{
		ID:        uuid.New().String(),
		DeviceID:  deviceID,
		CreatedAt: started,
		Candidate: candidate,
		Result:    result,
		Router:    lookup.NewRouter(s.inventory, s.log),
	}
	s.register(session)

	s.recordScanEvent(ctx, session)

	output := &ScanOutput{
		SessionID: session.ID,
		Result:    result,
		State:     session.Router.State(),
	}

	if record.Normalized == "" {
		// Not a VIN; the router never enters checking and the user must
		// correct or re-enter the text manually.
		output.ManualEntry = true
		s.metrics.Scan("manual_entry")
		s.metrics.ObserveScanDuration(time.Since(started).Seconds())
		s.log.Info().
			Str("session_id", session.ID).
			Str("raw_text", candidate.Text).
			Str("source", string(candidate.Source)).
			Msg("scan produced no VIN pattern, manual entry required")
		return output, nil
	}

	outcome, err := session.Router.Check(ctx, result)
	if err != nil {
		if errors.Is(err, lookup.ErrLookupFailed) {
			// Retryable: the recognition result is preserved so the
			// lookup can be reissued without re-scanning.
			output.LookupError = err.Error()
			output.State = session.Router.State()
			s.metrics.Scan("lookup_failed")
			s.log.Error().Err(err).Str("session_id", session.ID).Msg("inventory lookup failed")
			return output, nil
		}
		return nil, err
	}

	output.Outcome = outcome
	output.State = session.Router.State()
	s.metrics.Scan("ok")
	s.metrics.ObserveScanDuration(time.Since(started).Seconds())

	s.log.Info().
		Str("session_id", session.ID).
		Str("vin", record.Normalized).
		Bool("checksum_valid", record.ChecksumValid).
		Str("source", string(candidate.Source)).
		Float64("confidence", result.Confidence).
		Bool("matched", outcome.Matched).
		Msg("scan completed")

	return output, nil
}

// RetryLookup reissues a failed inventory lookup for an open session.
func (s *ScanService) RetryLookup(ctx context.Context, sessionID string) (*ScanOutput, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	outcome, err := session.Router.Check(ctx, session.Result)
	if err != nil {
		return nil, err
	}

	return &ScanOutput{
		SessionID: session.ID,
		Result:    session.Result,
		Outcome:   outcome,
		State:     session.Router.State(),
	}, nil
}

// Decide emits the session's terminal decision and closes it.
func (s *ScanService) Decide(ctx context.Context, sessionID string, kind vin.DecisionKind, targetLocation string) (*vin.Decision, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	var decision *vin.Decision
	switch kind {
	case vin.DecisionMoveToInventory:
		decision, err = session.Router.Move(ctx, targetLocation)
	case vin.DecisionAddDirectlyToInventory:
		decision, err = session.Router.AddToInventory(ctx)
	case vin.DecisionAddToNewArrivals:
		decision, err = session.Router.AddToArrivals(ctx)
	case vin.DecisionCancelled:
		decision, err = session.Router.Cancel()
	default:
		return nil, fmt.Errorf("%w: unknown decision kind %q", ErrInvalidInput, kind)
	}
	if err != nil {
		return nil, err
	}

	s.remove(session)
	s.metrics.Decision(string(kind))
	s.log.Info().
		Str("session_id", session.ID).
		Str("decision", string(kind)).
		Str("vin", decision.Vin).
		Msg("session closed")
	return decision, nil
}

// Cancel discards a session without applying any decision.
func (s *ScanService) Cancel(sessionID string) error {
	session, err := s.get(sessionID)
	if err != nil {
		return err
	}
	if _, err := session.Router.Cancel(); err != nil {
		return err
	}
	s.remove(session)
	s.metrics.Decision(string(vin.DecisionCancelled))
	return nil
}

// GetSession returns a snapshot of an open session.
func (s *ScanService) GetSession(sessionID string) (*ScanOutput, error) {
	session, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return &ScanOutput{
		SessionID:   session.ID,
		Result:      session.Result,
		Outcome:     session.Router.Outcome(),
		State:       session.Router.State(),
		ManualEntry: session.Result.Vin == nil || session.Result.Vin.Normalized == "",
	}, nil
}

func (s *ScanService) FindVehicles(ctx context.Context, vinQuery string) ([]vin.VehicleSummary, error) {
	normalized := vincode.Normalize(vinQuery)
	if normalized == "" {
		return nil, fmt.Errorf("%w: vin query cannot be empty", ErrInvalidInput)
	}
	vehicles, err := s.store.FindVehiclesByVin(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicles: %w", err)
	}
	return vehicles, nil
}

func (s *ScanService) FindScans(ctx context.Context, vinQuery *string, from, to *string, limit, offset int) ([]repository.ScanEvent, error) {
	var normalizedVin *string
	if vinQuery != nil {
		normalized := vincode.Normalize(*vinQuery)
		if normalized != "" {
			normalizedVin = &normalized
		}
	}

	var fromTime, toTime *time.Time
	if from != nil && *from != "" {
		t, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid from time format", ErrInvalidInput)
		}
		fromTime = &t
	}
	if to != nil && *to != "" {
		t, err := time.Parse(time.RFC3339, *to)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid to time format", ErrInvalidInput)
		}
		toTime = &t
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	events, err := s.store.FindScanEvents(ctx, normalizedVin, fromTime, toTime, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find scan events: %w", err)
	}
	return events, nil
}

// CleanupOldScans removes scan events older than the given number of days.
func (s *ScanService) CleanupOldScans(ctx context.Context, days int) (int64, error) {
	deleted, err := s.store.DeleteOldScanEvents(ctx, days)
	if err != nil {
		s.log.Error().Err(err).Int("days", days).Msg("failed to cleanup old scan events")
		return 0, err
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted_count", deleted).Int("days", days).Msg("cleaned up old scan events")
	}
	return deleted, nil
}

// recordScanEvent persists the audit row for a pipeline run. Persistence
// failures are logged but never fail the scan itself.
func (s *ScanService) recordScanEvent(ctx context.Context, session *Session) {
	event := &repository.ScanEvent{
		SessionID:  session.ID,
		Source:     string(session.Candidate.Source),
		RawText:    session.Candidate.RawText,
		Confidence: session.Result.Confidence,
		ScannedAt:  session.Candidate.ProducedAt,
	}
	if record := session.Result.Vin; record != nil {
		if record.Normalized != "" {
			event.NormalizedVin = &record.Normalized
		}
		event.ChecksumValid = record.ChecksumValid
	}
	if session.Result.Brand != "" {
		event.Brand = &session.Result.Brand
	}
	if session.Result.Model != "" {
		event.Model = &session.Result.Model
	}
	category := string(session.Result.Category)
	event.Category = &category

	if payload, err := json.Marshal(session.Result); err == nil {
		event.RawPayload = datatypes.JSON(payload)
	}

	if err := s.store.CreateScanEvent(ctx, event); err != nil {
		s.log.Error().Err(err).Str("session_id", session.ID).Msg("failed to persist scan event")
	}
}

func (s *ScanService) register(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	if session.DeviceID != "" {
		s.byDevice[session.DeviceID] = session.ID
	}
}

func (s *ScanService) remove(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session.ID)
	if session.DeviceID != "" && s.byDevice[session.DeviceID] == session.ID {
		delete(s.byDevice, session.DeviceID)
	}
}

func (s *ScanService) get(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	return session, nil
}

// supersede cancels the previous uncommitted session from the same device;
// its capture data is dropped with it.
func (s *ScanService) supersede(deviceID string) {
	if deviceID == "" {
		return
	}
	s.mu.Lock()
	prevID, ok := s.byDevice[deviceID]
	var prev *Session
	if ok {
		prev = s.sessions[prevID]
	}
	s.mu.Unlock()

	if prev == nil {
		return
	}
	if _, err := prev.Router.Cancel(); err == nil {
		s.log.Debug().Str("session_id", prev.ID).Str("device_id", deviceID).Msg("superseded uncommitted session")
	}
	s.remove(prev)
}
