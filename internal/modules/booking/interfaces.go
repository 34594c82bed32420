package booking

import (
	"context"

	"residency/internal/domain"
	"residency/internal/repository"
)

// BookingRepository defines the store operations the lifecycle needs.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, f repository.BookingFilters) ([]domain.Booking, int64, error)
	ListActiveForFacility(ctx context.Context, facilityID int64) ([]domain.Booking, error)
	UpdateReview(ctx context.Context, id int64, status domain.BookingStatus, reason string, reviewedBy int64) (int64, error)
	Cancel(ctx context.Context, id int64) (int64, error)
}

// FacilityRepository is the read-only view of the facility catalog.
type FacilityRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Facility, error)
}

// EventSink receives lifecycle events; delivery failures never fail the
// operation that triggered them.
type EventSink interface {
	NotifyBookingCreated(ctx context.Context, b *domain.Booking) error
	NotifyBookingReviewed(ctx context.Context, b *domain.Booking) error
	NotifyBookingCancelled(ctx context.Context, b *domain.Booking) error
}
