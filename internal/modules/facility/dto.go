package facility

type UpsertFacilityRequest struct {
	Name        string `json:"name" validate:"required,min=3"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity" validate:"gte=0"`
	Location    string `json:"location"`
	IsActive    *bool  `json:"isActive"`
}
