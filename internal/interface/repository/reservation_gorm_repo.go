package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"table-reservation-service/internal/domain/entity"
	"table-reservation-service/internal/domain/repository"
)

// GormReservationRepository implements the ReservationRepository interface on PostgreSQL
type GormReservationRepository struct {
	db        *gorm.DB
	validator RecordValidator
}

// NewGormReservationRepository creates a new GORM reservation repository and migrates its table
func NewGormReservationRepository(ctx context.Context, db *gorm.DB, validator RecordValidator) (repository.ReservationRepository, error) {
	if err := db.WithContext(ctx).AutoMigrate(&ReservationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate reservations table: %w", err)
	}

	return &GormReservationRepository{
		db:        db,
		validator: validator,
	}, nil
}

// ReservationRecord GORM model for database mapping
type ReservationRecord struct {
	ID              string    `gorm:"primaryKey;type:varchar(24)"`
	GuestName       string    `gorm:"column:guest_name;not null;check:guest_name <> ''"`
	ContactPhone    string    `gorm:"column:contact_phone;not null;check:contact_phone <> ''"`
	ContactEmail    string    `gorm:"column:contact_email;not null;check:contact_email <> ''"`
	ArrivalTime     time.Time `gorm:"column:arrival_time;not null;index:idx_reservations_arrival_status,priority:1"`
	TableSize       int       `gorm:"column:table_size;not null;check:table_size BETWEEN 1 AND 20"`
	Status          string    `gorm:"column:status;type:varchar(16);not null;index:idx_reservations_arrival_status,priority:2;check:status IN ('requested','confirmed','pending','cancelled')"`
	SpecialRequests string    `gorm:"column:special_requests;type:varchar(500)"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

// TableName overrides the default table name
func (ReservationRecord) TableName() string {
	return "reservations"
}

func toRecord(res *entity.Reservation) *ReservationRecord {
	return &ReservationRecord{
		ID:              res.ID,
		GuestName:       res.GuestName,
		ContactPhone:    res.ContactInfo.Phone,
		ContactEmail:    res.ContactInfo.Email,
		ArrivalTime:     res.ArrivalTime.UTC(),
		TableSize:       res.TableSize,
		Status:          string(res.Status),
		SpecialRequests: res.SpecialRequests,
		CreatedAt:       res.CreatedAt,
		UpdatedAt:       res.UpdatedAt,
	}
}

// Convert GORM model to domain entity
func (r *ReservationRecord) toEntity() *entity.Reservation {
	return &entity.Reservation{
		ID:        r.ID,
		GuestName: r.GuestName,
		ContactInfo: entity.ContactInfo{
			Phone: r.ContactPhone,
			Email: r.ContactEmail,
		},
		ArrivalTime:     r.ArrivalTime.UTC(),
		TableSize:       r.TableSize,
		Status:          entity.Status(r.Status),
		SpecialRequests: r.SpecialRequests,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

// Create inserts a reservation and assigns its id and timestamps
func (r *GormReservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	reservation.ID = primitive.NewObjectID().Hex()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(toRecord(reservation)).Error; err != nil {
		return mapGormError(err)
	}
	return nil
}

// FindByID finds a reservation by ID
func (r *GormReservationRepository) FindByID(ctx context.Context, id string) (*entity.Reservation, error) {
	var record ReservationRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &entity.NotFoundError{ID: id}
		}
		return nil, err
	}
	return record.toEntity(), nil
}

// Update merges the patch into the locked row and validates the result before commit
func (r *GormReservationRepository) Update(ctx context.Context, id string, patch entity.ReservationPatch) (*entity.Reservation, error) {
	return r.mutate(ctx, id, func(res *entity.Reservation) { res.Apply(patch) })
}

// UpdateStatus sets only the status
func (r *GormReservationRepository) UpdateStatus(ctx context.Context, id string, status entity.Status) (*entity.Reservation, error) {
	return r.mutate(ctx, id, func(res *entity.Reservation) { res.Status = status })
}

func (r *GormReservationRepository) mutate(ctx context.Context, id string, change func(*entity.Reservation)) (*entity.Reservation, error) {
	var updated *entity.Reservation

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record ReservationRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&record).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &entity.NotFoundError{ID: id}
			}
			return err
		}

		res := record.toEntity()
		change(res)
		if r.validator != nil {
			if err := r.validator.ValidateRecord(res); err != nil {
				return err
			}
		}
		res.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

		if err := tx.Save(toRecord(res)).Error; err != nil {
			return mapGormError(err)
		}
		updated = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Find finds reservations matching filter sorted by arrival time then id
func (r *GormReservationRepository) Find(ctx context.Context, filter entity.ReservationFilter) ([]*entity.Reservation, error) {
	query := r.db.WithContext(ctx).Model(&ReservationRecord{})
	if filter.ArrivalFrom != nil {
		query = query.Where("arrival_time >= ?", filter.ArrivalFrom.UTC())
	}
	if filter.ArrivalTo != nil {
		query = query.Where("arrival_time < ?", filter.ArrivalTo.UTC())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var records []ReservationRecord
	if err := query.Order("arrival_time ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	reservations := make([]*entity.Reservation, 0, len(records))
	for i := range records {
		reservations = append(reservations, records[i].toEntity())
	}
	return reservations, nil
}

// Ping checks the database is reachable
func (r *GormReservationRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// mapGormError turns a CHECK constraint rejection into a ValidationError.
// Requires the dialector to run with TranslateError enabled.
func mapGormError(err error) error {
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return &entity.ValidationError{Violations: []entity.FieldViolation{{
			Field:   "document",
			Message: "rejected by store check constraint",
		}}}
	}
	return err
}
