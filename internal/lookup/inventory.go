package lookup

import (
	"context"

	"vinscan-service/internal/domain/vin"
)

// Inventory is the external vehicle store collaborator. The router issues
// exactly one FindByVin query per session and hands terminal decisions to the
// mutation methods.
type Inventory interface {
	// FindByVin returns the existing vehicle for a normalized VIN, or nil
	// when the vehicle is not known.
	FindByVin(ctx context.Context, normalizedVin string) (*vin.VehicleSummary, error)
	// MoveToInventory relocates an already known vehicle.
	MoveToInventory(ctx context.Context, existingID int64, targetLocation string) error
	// CreateInventoryEntry registers a new vehicle directly in the
	// inventory. ChecksumValid false signals the collaborator to require
	// manual confirmation.
	CreateInventoryEntry(ctx context.Context, record vin.VinRecord, result vin.RecognitionResult) error
	// CreateArrivalEntry places a new vehicle in the new-arrivals queue.
	CreateArrivalEntry(ctx context.Context, record vin.VinRecord, result vin.RecognitionResult) error
}
