package vin

import (
	"time"
)

// CandidateSource identifies which recognition stage produced a candidate.
type CandidateSource string

const (
	SourceLocal CandidateSource = "local"
	SourceCloud CandidateSource = "cloud"
)

// VehicleCategory is the coarse drivetrain classification derived from
// recognized text.
type VehicleCategory string

const (
	CategoryEV    VehicleCategory = "EV"
	CategoryREV   VehicleCategory = "REV"
	CategoryICEV  VehicleCategory = "ICEV"
	CategoryOther VehicleCategory = "OTHER"
)

// RawCapture is the transient image buffer for one scan session. It is owned
// by the session that created it and discarded when the session ends.
type RawCapture struct {
	Image      []byte
	DeviceID   string
	CapturedAt time.Time
}

// OcrCandidate is the text produced by one recognition stage. Immutable once
// produced; at most one accepted candidate exists per session.
type OcrCandidate struct {
	Text       string          `json:"text"`
	RawText    string          `json:"raw_text,omitempty"`
	Source     CandidateSource `json:"source"`
	ProducedAt time.Time       `json:"produced_at"`
}

// VinRecord is derived deterministically from an OcrCandidate. Normalized is
// non-empty only when the cleaned text is exactly 17 characters from the VIN
// alphabet (no I, O, Q).
type VinRecord struct {
	Raw           string `json:"raw"`
	Normalized    string `json:"normalized,omitempty"`
	ChecksumValid bool   `json:"checksum_valid"`
	WMI           string `json:"wmi,omitempty"`
	VDS           string `json:"vds,omitempty"`
	VIS           string `json:"vis,omitempty"`
	Year          int    `json:"year,omitempty"`
	Country       string `json:"country,omitempty"`
	Manufacturer  string `json:"manufacturer,omitempty"`
}

// RecognitionResult is the pipeline's terminal output, handed to the
// presentation layer and the lookup router.
type RecognitionResult struct {
	Vin        *VinRecord      `json:"vin,omitempty"`
	Brand      string          `json:"brand,omitempty"`
	Model      string          `json:"model,omitempty"`
	Category   VehicleCategory `json:"category"`
	Confidence float64         `json:"confidence"`
}

// VehicleSummary is the inventory collaborator's view of an already known
// vehicle.
type VehicleSummary struct {
	ID           int64     `json:"id"`
	Vin          string    `json:"vin"`
	Brand        string    `json:"brand,omitempty"`
	Model        string    `json:"model,omitempty"`
	Location     string    `json:"location,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// LookupOutcome records the result of the single inventory query issued for a
// session.
type LookupOutcome struct {
	Matched         bool            `json:"matched"`
	ExistingVehicle *VehicleSummary `json:"existing_vehicle,omitempty"`
}

// DecisionKind enumerates the terminal decisions of a scan session.
type DecisionKind string

const (
	DecisionMoveToInventory        DecisionKind = "move_to_inventory"
	DecisionAddDirectlyToInventory DecisionKind = "add_to_inventory"
	DecisionAddToNewArrivals       DecisionKind = "add_to_new_arrivals"
	DecisionCancelled              DecisionKind = "cancelled"
)

// Decision is the single terminal action emitted by a session. Once emitted
// the session is closed and its capture data is discarded.
type Decision struct {
	Kind           DecisionKind `json:"kind"`
	ExistingID     int64        `json:"existing_id,omitempty"`
	TargetLocation string       `json:"target_location,omitempty"`
	Vin            string       `json:"vin,omitempty"`
}
