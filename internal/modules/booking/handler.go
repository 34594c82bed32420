package booking

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"residency/internal/domain"
	"residency/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the authenticated booking endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings", h.List)
	rg.GET("/bookings/calendar", h.Calendar)
	rg.GET("/bookings/:id", h.Get)
	rg.POST("/bookings", h.Create)
	rg.POST("/bookings/:id/cancel", h.Cancel)
	rg.PATCH("/bookings/:id", h.Patch)
}

// RegisterAdminRoutes wires the review endpoints; the group is expected to
// carry the admin-role middleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings/:id/approve", h.Approve)
	rg.POST("/bookings/:id/reject", h.Reject)
}

func actorFrom(c *gin.Context) Actor {
	return Actor{
		UserID: c.GetInt64("user_id"),
		Role:   domain.Role(c.GetString("role")),
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) List(c *gin.Context) {
	f := ListFilter{
		Status:    c.Query("status"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}

	if v := c.Query("facilityId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid facilityId")
			return
		}
		f.FacilityID = id
	}

	f.Limit = 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			f.Limit = n
		}
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Offset = (n - 1) * f.Limit
		}
	}

	bookings, total, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"bookings": bookings,
		"total":    total,
	})
}

func (h *Handler) Calendar(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "month is required")
		return
	}

	var facilityID int64
	if v := c.Query("facilityId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid facilityId")
			return
		}
		facilityID = id
	}

	cells, err := h.service.Calendar(c.Request.Context(), facilityID, month)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"days": cells})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Approve(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Approve(c.Request.Context(), actorFrom(c), id, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Reject(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Reject(c.Request.Context(), actorFrom(c), id, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b, "message": "Booking cancelled"})
}

func (h *Handler) Patch(c *gin.Context) {
	id, ok := h.bookingID(c)
	if !ok {
		return
	}

	var req PatchBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.ApplyStatus(c.Request.Context(), actorFrom(c), id, req.Status, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var ve *ValidationError
	var ce *ConflictError
	var te *TransitionError

	switch {
	case errors.As(err, &ve):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", ve.Message, gin.H{"field": ve.Field})
	case errors.As(err, &ce):
		response.ErrorWithDetails(c, http.StatusConflict, "BOOKING_CONFLICT",
			"Requested interval overlaps existing bookings", gin.H{"conflicts": conflictViews(ce.Conflicts)})
	case errors.As(err, &te):
		response.ErrorWithDetails(c, http.StatusConflict, "INVALID_TRANSITION",
			"Booking state does not allow this change", gin.H{"from": te.From, "to": te.To})
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not allowed to perform this action")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrFacilityNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Facility not found")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

type conflictView struct {
	ID     int64                `json:"id"`
	Title  string               `json:"title"`
	Start  string               `json:"start"`
	End    string               `json:"end"`
	Status domain.BookingStatus `json:"status"`
}

func conflictViews(bookings []domain.Booking) []conflictView {
	out := make([]conflictView, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, conflictView{
			ID:     b.ID,
			Title:  b.Title,
			Start:  b.StartTime.Format(time.RFC3339),
			End:    b.EndTime.Format(time.RFC3339),
			Status: b.Status,
		})
	}
	return out
}
