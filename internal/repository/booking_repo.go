package repository

import (
	"context"
	"errors"
	"time"

	"residency/internal/domain"

	"gorm.io/gorm"
)

// ErrSlotTaken is returned by Create when the transactional availability
// check finds an active booking overlapping the requested interval.
var ErrSlotTaken = errors.New("slot already taken")

// ConstraintNoDoubleBooking names the Postgres exclusion constraint that
// rejects two active bookings overlapping on the same facility. Violations
// surface as pgconn errors carrying this name.
const ConstraintNoDoubleBooking = "idx_no_double_booking"

// EnsureBookingConstraints installs the exclusion constraint after
// AutoMigrate. The transactional count-then-insert in Create runs at READ
// COMMITTED on Postgres, so two concurrent creates can both see an empty
// slot and both commit; the constraint is what actually serializes them.
// On SQLite the single-writer lock already serializes writes, so this is a
// no-op there.
func EnsureBookingConstraints(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return err
	}

	return db.Exec(`
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint WHERE conname = '` + ConstraintNoDoubleBooking + `'
	) THEN
		ALTER TABLE bookings ADD CONSTRAINT ` + ConstraintNoDoubleBooking + `
			EXCLUDE USING gist (
				facility_id WITH =,
				tsrange(start_time, end_time) WITH &&
			)
			WHERE (status IN ('pending', 'approved'));
	END IF;
END $$
`).Error
}

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID           int64      `gorm:"column:id;primaryKey"`
	FacilityID   int64      `gorm:"column:facility_id;index"`
	Title        string     `gorm:"column:title"`
	CreatedBy    int64      `gorm:"column:created_by"`
	StartTime    time.Time  `gorm:"column:start_time"`
	EndTime      time.Time  `gorm:"column:end_time"`
	Status       string     `gorm:"column:status;index"`
	Note         *string    `gorm:"column:note"`
	ReviewReason *string    `gorm:"column:review_reason"`
	ReviewedBy   *int64     `gorm:"column:reviewed_by"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	CancelledAt  *time.Time `gorm:"column:cancelled_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var note, reason string
	if m.Note != nil {
		note = *m.Note
	}
	if m.ReviewReason != nil {
		reason = *m.ReviewReason
	}

	return &domain.Booking{
		ID:           m.ID,
		FacilityID:   m.FacilityID,
		Title:        m.Title,
		CreatedBy:    m.CreatedBy,
		StartTime:    m.StartTime,
		EndTime:      m.EndTime,
		Status:       domain.BookingStatus(m.Status),
		Note:         note,
		ReviewReason: reason,
		ReviewedBy:   m.ReviewedBy,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		CancelledAt:  m.CancelledAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var note, reason *string
	if b.Note != "" {
		v := b.Note
		note = &v
	}
	if b.ReviewReason != "" {
		v := b.ReviewReason
		reason = &v
	}

	return bookingModel{
		ID:           b.ID,
		FacilityID:   b.FacilityID,
		Title:        b.Title,
		CreatedBy:    b.CreatedBy,
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		Status:       string(b.Status),
		Note:         note,
		ReviewReason: reason,
		ReviewedBy:   b.ReviewedBy,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
		CancelledAt:  b.CancelledAt,
	}
}

// Create inserts the booking after re-checking availability inside one
// transaction. The re-check catches a booking committed between the
// service-level conflict scan and here; true write-write races are settled
// by the idx_no_double_booking constraint on Postgres (see
// EnsureBookingConstraints), whose violation surfaces through the returned
// error and is mapped by the caller.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		q := `
SELECT COUNT(1)
FROM bookings
WHERE facility_id = ?
  AND status IN ('pending', 'approved')
  AND start_time < ?
  AND end_time > ?
`
		if err := tx.Raw(q, b.FacilityID, b.EndTime, b.StartTime).Scan(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrSlotTaken
		}

		m := toBookingModel(b)
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		*b = *toDomainBooking(m)
		return nil
	})
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

type BookingFilters struct {
	Status     string
	FacilityID int64
	StartDate  time.Time
	EndDate    time.Time
	Limit      int
	Offset     int
}

// List returns bookings matching the filters plus the unpaginated total.
// The date range matches bookings overlapping [StartDate, EndDate).
func (r *BookingRepository) List(ctx context.Context, f BookingFilters) ([]domain.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&bookingModel{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.FacilityID != 0 {
		q = q.Where("facility_id = ?", f.FacilityID)
	}
	if !f.StartDate.IsZero() {
		q = q.Where("end_time > ?", f.StartDate)
	}
	if !f.EndDate.IsZero() {
		q = q.Where("start_time < ?", f.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var rows []bookingModel
	if err := q.Order("start_time ASC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, total, nil
}

// ListActiveForFacility returns pending and approved bookings for the
// facility, the working set of the conflict checker.
func (r *BookingRepository) ListActiveForFacility(ctx context.Context, facilityID int64) ([]domain.Booking, error) {
	var rows []bookingModel
	tx := r.db.WithContext(ctx).
		Where("facility_id = ? AND status IN ('pending', 'approved')", facilityID).
		Order("start_time ASC").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// UpdateReview moves a pending booking to approved or rejected. Returns the
// number of rows touched: zero means the booking was not pending (or does
// not exist) and nothing was mutated.
func (r *BookingRepository) UpdateReview(ctx context.Context, id int64, status domain.BookingStatus, reason string, reviewedBy int64) (int64, error) {
	updates := map[string]interface{}{
		"status":      string(status),
		"reviewed_by": reviewedBy,
		"updated_at":  time.Now(),
	}
	if reason != "" {
		updates["review_reason"] = reason
	}

	tx := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ? AND status = ?", id, string(domain.BookingPending)).
		Updates(updates)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}

// Cancel moves a pending or approved booking to cancelled. Zero rows means
// the booking was already terminal (or missing) and nothing changed.
func (r *BookingRepository) Cancel(ctx context.Context, id int64) (int64, error) {
	now := time.Now()
	tx := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Where("id = ? AND status IN ('pending', 'approved')", id).
		Updates(map[string]interface{}{
			"status":       string(domain.BookingCancelled),
			"cancelled_at": now,
			"updated_at":   now,
		})
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}
