package booking

import "residency/internal/domain"

// Actor is the identity performing an operation, taken from the validated
// token and passed explicitly; the service never reads ambient session state.
type Actor struct {
	UserID int64
	Role   domain.Role
}

func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

type CreateBookingRequest struct {
	FacilityID int64  `json:"facilityId" binding:"required"`
	Title      string `json:"title" binding:"required"`
	Date       string `json:"date" binding:"required"`      // 2006-01-02
	StartTime  string `json:"startTime" binding:"required"` // 15:04
	EndTime    string `json:"endTime" binding:"required"`   // 15:04
	Note       string `json:"note"`
}

type ReviewRequest struct {
	Reason string `json:"reason"`
}

type PatchBookingRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type ListFilter struct {
	Status     string
	FacilityID int64
	StartDate  string // 2006-01-02, inclusive
	EndDate    string // 2006-01-02, exclusive
	Limit      int
	Offset     int
}
