package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the four known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingApproved, BookingRejected, BookingCancelled:
		return true
	}
	return false
}

// Active bookings count toward conflict checks.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingApproved
}

// Terminal bookings accept no further transitions.
func (s BookingStatus) Terminal() bool {
	return s == BookingRejected || s == BookingCancelled
}

type Booking struct {
	ID           int64         `json:"id"`
	FacilityID   int64         `json:"facilityId" validate:"required"`
	Title        string        `json:"title" validate:"required,min=3"`
	CreatedBy    int64         `json:"createdBy" validate:"required"`
	StartTime    time.Time     `json:"start" validate:"required"`
	EndTime      time.Time     `json:"end" validate:"required"`
	Status       BookingStatus `json:"status"`
	Note         string        `json:"note,omitempty" gorm:"type:text"`
	ReviewReason string        `json:"reviewReason,omitempty" gorm:"type:text"`
	ReviewedBy   *int64        `json:"reviewedBy,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	CancelledAt  *time.Time    `json:"cancelledAt,omitempty"`

	Facility *Facility `json:"facility,omitempty" gorm:"foreignKey:FacilityID"`
	Creator  *User     `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
}
