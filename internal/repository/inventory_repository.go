package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"vinscan-service/internal/domain/vin"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

type Vehicle struct {
	ID            int64     `gorm:"primaryKey"`
	Vin           string    `gorm:"not null;uniqueIndex"`
	Brand         *string
	Model         *string
	Category      *string
	Year          *int
	Country       *string
	Manufacturer  *string
	Location      *string
	ChecksumValid bool      `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Arrival struct {
	ID            int64     `gorm:"primaryKey"`
	Vin           string    `gorm:"not null"`
	Brand         *string
	Model         *string
	Category      *string
	ChecksumValid bool      `gorm:"not null"`
	CreatedAt     time.Time
}

type ScanEvent struct {
	ID            int64          `gorm:"primaryKey"`
	SessionID     string         `gorm:"not null"`
	Source        string         `gorm:"not null"`
	RawText       string         `gorm:"not null"`
	NormalizedVin *string
	ChecksumValid bool
	Brand         *string
	Model         *string
	Category      *string
	Confidence    float64
	RawPayload    datatypes.JSON `gorm:"type:jsonb"`
	ScannedAt     time.Time      `gorm:"not null"`
	CreatedAt     time.Time
}

// FindByVin implements the lookup query contract: a single read keyed on the
// normalized VIN, nil when the vehicle is unknown.
func (r *InventoryRepository) FindByVin(ctx context.Context, normalizedVin string) (*vin.VehicleSummary, error) {
	var vehicle Vehicle
	err := r.db.WithContext(ctx).Where("vin = ?", normalizedVin).First(&vehicle).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toSummary(&vehicle), nil
}

func (r *InventoryRepository) MoveToInventory(ctx context.Context, existingID int64, targetLocation string) error {
	return r.db.WithContext(ctx).
		Model(&Vehicle{}).
		Where("id = ?", existingID).
		Updates(map[string]interface{}{
			"location":   targetLocation,
			"updated_at": time.Now(),
		}).Error
}

func (r *InventoryRepository) CreateInventoryEntry(ctx context.Context, record vin.VinRecord, result vin.RecognitionResult) error {
	vehicle := Vehicle{
		Vin:           record.Normalized,
		ChecksumValid: record.ChecksumValid,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if result.Brand != "" {
		vehicle.Brand = &result.Brand
	}
	if result.Model != "" {
		vehicle.Model = &result.Model
	}
	category := string(result.Category)
	vehicle.Category = &category
	if record.Year != 0 {
		vehicle.Year = &record.Year
	}
	if record.Country != "" {
		vehicle.Country = &record.Country
	}
	if record.Manufacturer != "" {
		vehicle.Manufacturer = &record.Manufacturer
	}
	return r.db.WithContext(ctx).Create(&vehicle).Error
}

func (r *InventoryRepository) CreateArrivalEntry(ctx context.Context, record vin.VinRecord, result vin.RecognitionResult) error {
	arrival := Arrival{
		Vin:           record.Normalized,
		ChecksumValid: record.ChecksumValid,
		CreatedAt:     time.Now(),
	}
	if result.Brand != "" {
		arrival.Brand = &result.Brand
	}
	if result.Model != "" {
		arrival.Model = &result.Model
	}
	category := string(result.Category)
	arrival.Category = &category
	return r.db.WithContext(ctx).Create(&arrival).Error
}

func (r *InventoryRepository) FindVehiclesByVin(ctx context.Context, normalizedVin string) ([]vin.VehicleSummary, error) {
	var vehicles []Vehicle
	err := r.db.WithContext(ctx).
		Where("vin = ?", normalizedVin).
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	result := make([]vin.VehicleSummary, 0, len(vehicles))
	for i := range vehicles {
		result = append(result, *toSummary(&vehicles[i]))
	}
	return result, nil
}

func (r *InventoryRepository) CreateScanEvent(ctx context.Context, event *ScanEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *InventoryRepository) FindScanEvents(ctx context.Context, normalizedVin *string, from, to *time.Time, limit, offset int) ([]ScanEvent, error) {
	query := r.db.WithContext(ctx).Model(&ScanEvent{})

	if normalizedVin != nil {
		query = query.Where("normalized_vin = ?", *normalizedVin)
	}
	if from != nil {
		query = query.Where("scanned_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("scanned_at <= ?", *to)
	}

	query = query.Order("scanned_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var events []ScanEvent
	err := query.Find(&events).Error
	return events, err
}

func (r *InventoryRepository) DeleteOldScanEvents(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	res := r.db.WithContext(ctx).
		Where("scanned_at < ?", cutoff).
		Delete(&ScanEvent{})
	return res.RowsAffected, res.Error
}

func toSummary(v *Vehicle) *vin.VehicleSummary {
	summary := &vin.VehicleSummary{
		ID:           v.ID,
		Vin:          v.Vin,
		RegisteredAt: v.CreatedAt,
	}
	if v.Brand != nil {
		summary.Brand = *v.Brand
	}
	if v.Model != nil {
		summary.Model = *v.Model
	}
	if v.Location != nil {
		summary.Location = *v.Location
	}
	return summary
}
