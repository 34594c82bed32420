package domain

import "time"

// Facility is a bookable shared resource (community hall, gym, court).
// Managed by admin tooling; the booking subsystem only reads it.
type Facility struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Capacity    int       `json:"capacity,omitempty"`
	Location    string    `json:"location,omitempty"`
	IsActive    bool      `json:"isActive" gorm:"default:true"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
