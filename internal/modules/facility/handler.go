package facility

import (
	"errors"
	"net/http"
	"strconv"

	"residency/internal/domain"
	"residency/internal/pkg/response"
	"residency/internal/pkg/validator"
	"residency/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	facilities *repository.FacilityRepository
}

func NewHandler(facilities *repository.FacilityRepository) *Handler {
	return &Handler{facilities: facilities}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/facilities", h.List)
	rg.GET("/facilities/:id", h.Get)
}

// RegisterAdminRoutes wires facility management; the group is expected to
// carry the admin-role middleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/facilities", h.Create)
	rg.PUT("/facilities/:id", h.Update)
}

// List handles GET /api/v1/facilities
func (h *Handler) List(c *gin.Context) {
	facilities, err := h.facilities.GetAll(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load facilities")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"facilities": facilities})
}

// Get handles GET /api/v1/facilities/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid facility ID")
		return
	}

	facility, err := h.facilities.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Facility not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load facility")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"facility": facility})
}

// Create handles POST /api/v1/facilities (admin group)
func (h *Handler) Create(c *gin.Context) {
	var req UpsertFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid facility", errs)
		return
	}

	f := &domain.Facility{
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		Location:    req.Location,
		IsActive:    true,
	}
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}

	if err := h.facilities.Create(c.Request.Context(), f); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create facility")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"facility": f})
}

// Update handles PUT /api/v1/facilities/:id (admin group)
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid facility ID")
		return
	}

	var req UpsertFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid facility", errs)
		return
	}

	f, err := h.facilities.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Facility not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load facility")
		return
	}

	f.Name = req.Name
	f.Description = req.Description
	f.Capacity = req.Capacity
	f.Location = req.Location
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}

	if err := h.facilities.Update(c.Request.Context(), f); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update facility")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"facility": f})
}
