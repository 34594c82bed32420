package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"residency/internal/domain"
	"residency/internal/repository"
	"residency/internal/schedule"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const minTitleLen = 3

type Service struct {
	bookings   BookingRepository
	facilities FacilityRepository
	events     EventSink
}

func NewService(bookings BookingRepository, facilities FacilityRepository, events EventSink) *Service {
	return &Service{
		bookings:   bookings,
		facilities: facilities,
		events:     events,
	}
}

// Create validates the request, runs the conflict check against the
// facility's active bookings and persists the booking as pending. Conflicts
// come back as a *ConflictError carrying the overlapping bookings.
func (s *Service) Create(ctx context.Context, actor Actor, req CreateBookingRequest) (*domain.Booking, error) {
	title := strings.TrimSpace(req.Title)
	if len(title) < minTitleLen {
		return nil, &ValidationError{Field: "title", Message: "title must be at least 3 characters"}
	}
	if req.FacilityID == 0 {
		return nil, &ValidationError{Field: "facilityId", Message: "facility is required"}
	}

	start, end, err := composeInterval(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	facility, err := s.facilities.GetByID(ctx, req.FacilityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacilityNotFound
		}
		return nil, err
	}
	if !facility.IsActive {
		return nil, ErrFacilityNotFound
	}

	active, err := s.bookings.ListActiveForFacility(ctx, req.FacilityID)
	if err != nil {
		return nil, err
	}
	if conflicts := schedule.FindConflicts(active, req.FacilityID, start, end, 0); len(conflicts) > 0 {
		return nil, &ConflictError{Conflicts: conflicts}
	}

	b := &domain.Booking{
		FacilityID: req.FacilityID,
		Title:      title,
		CreatedBy:  actor.UserID,
		StartTime:  start,
		EndTime:    end,
		Status:     domain.BookingPending,
		Note:       req.Note,
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		// A concurrent create can slip past the in-memory check; the
		// transactional re-check (and, on Postgres, idx_no_double_booking)
		// reports it here. Re-read the winners for the conflict payload.
		if s.isSlotTaken(err) {
			conflicts, lerr := s.bookings.ListActiveForFacility(ctx, req.FacilityID)
			if lerr != nil {
				return nil, lerr
			}
			return nil, &ConflictError{
				Conflicts: schedule.FindConflicts(conflicts, req.FacilityID, start, end, 0),
			}
		}
		return nil, err
	}

	if s.events != nil {
		_ = s.events.NotifyBookingCreated(ctx, b)
	}
	return b, nil
}

func (s *Service) isSlotTaken(err error) bool {
	if errors.Is(err, repository.ErrSlotTaken) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return (pgErr.Code == "23505" || pgErr.Code == "23P01") &&
			pgErr.ConstraintName == repository.ConstraintNoDoubleBooking
	}
	return false
}

// Approve moves a pending booking to approved. Admin only.
func (s *Service) Approve(ctx context.Context, actor Actor, id int64, reason string) (*domain.Booking, error) {
	return s.review(ctx, actor, id, domain.BookingApproved, reason)
}

// Reject moves a pending booking to rejected. Admin only.
func (s *Service) Reject(ctx context.Context, actor Actor, id int64, reason string) (*domain.Booking, error) {
	return s.review(ctx, actor, id, domain.BookingRejected, reason)
}

func (s *Service) review(ctx context.Context, actor Actor, id int64, status domain.BookingStatus, reason string) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	b, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.bookings.UpdateReview(ctx, id, status, reason, actor.UserID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, &TransitionError{From: b.Status, To: status}
	}

	b, err = s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		_ = s.events.NotifyBookingReviewed(ctx, b)
	}
	return b, nil
}

// Cancel moves a pending or approved booking to cancelled. Allowed for the
// booking's creator and for admins. A cancelled booking never counts as
// active again, so the slot is freed for future bookings.
func (s *Service) Cancel(ctx context.Context, actor Actor, id int64) (*domain.Booking, error) {
	b, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.CreatedBy != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	rows, err := s.bookings.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, &TransitionError{From: b.Status, To: domain.BookingCancelled}
	}

	b, err = s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		_ = s.events.NotifyBookingCancelled(ctx, b)
	}
	return b, nil
}

// ApplyStatus is the generic PATCH entry point. Only transitions expressible
// through the state machine are accepted.
func (s *Service) ApplyStatus(ctx context.Context, actor Actor, id int64, status string, reason string) (*domain.Booking, error) {
	target := domain.BookingStatus(status)
	if !target.Valid() {
		return nil, &ValidationError{Field: "status", Message: "unknown status"}
	}

	switch target {
	case domain.BookingApproved:
		return s.Approve(ctx, actor, id, reason)
	case domain.BookingRejected:
		return s.Reject(ctx, actor, id, reason)
	case domain.BookingCancelled:
		return s.Cancel(ctx, actor, id)
	default: // pending: bookings only enter pending through Create
		b, err := s.getByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &TransitionError{From: b.Status, To: target}
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.getByID(ctx, id)
}

// List returns bookings matching the filter plus the unpaginated total.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Booking, int64, error) {
	repoFilters := repository.BookingFilters{
		Status:     f.Status,
		FacilityID: f.FacilityID,
		Limit:      f.Limit,
		Offset:     f.Offset,
	}

	if f.Status != "" && !domain.BookingStatus(f.Status).Valid() {
		return nil, 0, &ValidationError{Field: "status", Message: "unknown status"}
	}
	if f.StartDate != "" {
		d, err := time.Parse("2006-01-02", f.StartDate)
		if err != nil {
			return nil, 0, &ValidationError{Field: "startDate", Message: "expected YYYY-MM-DD"}
		}
		repoFilters.StartDate = d
	}
	if f.EndDate != "" {
		d, err := time.Parse("2006-01-02", f.EndDate)
		if err != nil {
			return nil, 0, &ValidationError{Field: "endDate", Message: "expected YYYY-MM-DD"}
		}
		repoFilters.EndDate = d.AddDate(0, 0, 1)
	}

	return s.bookings.List(ctx, repoFilters)
}

// Calendar projects a month of bookings onto the 42-day grid. The month is
// given as YYYY-MM; facilityID of zero means all facilities.
func (s *Service) Calendar(ctx context.Context, facilityID int64, month string) ([]schedule.DayCell, error) {
	ref, err := time.ParseInLocation("2006-01", month, time.UTC)
	if err != nil {
		return nil, &ValidationError{Field: "month", Message: "expected YYYY-MM"}
	}

	windowStart := schedule.GridStart(ref)
	windowEnd := windowStart.AddDate(0, 0, schedule.GridDays)

	bookings, _, err := s.bookings.List(ctx, repository.BookingFilters{
		FacilityID: facilityID,
		StartDate:  windowStart,
		EndDate:    windowEnd,
	})
	if err != nil {
		return nil, err
	}

	return schedule.MonthGrid(ref, bookings), nil
}

func (s *Service) getByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// composeInterval builds the start/end instants from a calendar date plus
// HH:MM times. All instants are UTC; the frontend converts for display.
func composeInterval(date, startTime, endTime string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "date", Message: "expected YYYY-MM-DD"}
	}
	st, err := time.Parse("15:04", startTime)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "startTime", Message: "expected HH:MM"}
	}
	et, err := time.Parse("15:04", endTime)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "endTime", Message: "expected HH:MM"}
	}

	start := day.Add(time.Duration(st.Hour())*time.Hour + time.Duration(st.Minute())*time.Minute)
	end := day.Add(time.Duration(et.Hour())*time.Hour + time.Duration(et.Minute())*time.Minute)

	if !end.After(start) {
		return time.Time{}, time.Time{}, &ValidationError{Field: "endTime", Message: "end time must be after start time"}
	}
	return start, end, nil
}
