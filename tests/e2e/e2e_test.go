package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"residency/internal/database"
	"residency/internal/domain"
	"residency/internal/middleware"
	"residency/internal/modules/auth"
	"residency/internal/modules/booking"
	"residency/internal/modules/events"
	"residency/internal/modules/facility"
	jwtsvc "residency/internal/pkg/jwt"
	"residency/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type E2ETestSuite struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtService *jwtsvc.Service
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")

	models := []interface{}{
		&domain.User{},
		&domain.Facility{},
		&domain.Booking{},
	}
	for _, model := range models {
		err := db.AutoMigrate(model)
		require.NoError(t, err, fmt.Sprintf("Failed to migrate %T", model))
	}
	require.NoError(t, repository.EnsureBookingConstraints(db))

	userRepo := repository.NewUserRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)
	hub := events.NewHub()

	authService := auth.NewService(userRepo, jwtService)
	authHandler := auth.NewHandler(authService)

	facilityHandler := facility.NewHandler(facilityRepo)

	bookingService := booking.NewService(bookingRepo, facilityRepo, hub)
	bookingHandler := booking.NewHandler(bookingService)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")

	authHandler.RegisterRoutes(v1)
	facilityHandler.RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(jwtService))
	{
		bookingHandler.RegisterRoutes(protected)

		admin := protected.Group("")
		admin.Use(middleware.AdminOnly())
		{
			bookingHandler.RegisterAdminRoutes(admin)
			facilityHandler.RegisterAdminRoutes(admin)
		}
	}

	return &E2ETestSuite{router: r, db: db, jwtService: jwtService}
}

func (s *E2ETestSuite) createUser(t *testing.T, email string, role domain.Role) (*domain.User, string) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Test User",
		Role:         role,
		IsApproved:   true,
	}
	require.NoError(t, s.db.Create(user).Error)

	token, err := s.jwtService.GenerateToken(user.ID, string(role))
	require.NoError(t, err)
	return user, token
}

func (s *E2ETestSuite) createFacility(t *testing.T, name string) *domain.Facility {
	f := &domain.Facility{Name: name, Capacity: 50, IsActive: true}
	require.NoError(t, s.db.Create(f).Error)
	return f
}

func (s *E2ETestSuite) request(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, TestResponse) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp TestResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func bookingFromResponse(t *testing.T, resp TestResponse) map[string]interface{} {
	b, ok := resp.Data["booking"].(map[string]interface{})
	require.True(t, ok, "response has no booking")
	return b
}

func TestBookingLifecycleEndToEnd(t *testing.T) {
	s := setupTestSuite(t)

	_, adminToken := s.createUser(t, "admin@residency.test", domain.RoleAdmin)
	resident, residentToken := s.createUser(t, "anita@residency.test", domain.RoleResident)
	hall := s.createFacility(t, "Community Hall")

	// Resident books 2025-12-05 10:00-12:00.
	w, resp := s.request(t, http.MethodPost, "/api/v1/bookings", residentToken, gin.H{
		"facilityId": hall.ID,
		"title":      "Housewarming party",
		"date":       "2025-12-05",
		"startTime":  "10:00",
		"endTime":    "12:00",
		"note":       "about 30 guests",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := bookingFromResponse(t, resp)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, float64(resident.ID), created["createdBy"])
	bookingID := int64(created["id"].(float64))

	// Overlapping 11:00-13:00 is rejected with the conflicting booking listed.
	w, resp = s.request(t, http.MethodPost, "/api/v1/bookings", residentToken, gin.H{
		"facilityId": hall.ID,
		"title":      "Overlapping event",
		"date":       "2025-12-05",
		"startTime":  "11:00",
		"endTime":    "13:00",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "BOOKING_CONFLICT", resp.Error.Code)
	details := resp.Error.Details.(map[string]interface{})
	conflicts := details["conflicts"].([]interface{})
	require.Len(t, conflicts, 1)
	assert.Equal(t, "Housewarming party", conflicts[0].(map[string]interface{})["title"])

	// Touching 12:00-13:00 goes through (half-open intervals).
	w, resp = s.request(t, http.MethodPost, "/api/v1/bookings", residentToken, gin.H{
		"facilityId": hall.ID,
		"title":      "Back-to-back slot",
		"date":       "2025-12-05",
		"startTime":  "12:00",
		"endTime":    "13:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "pending", bookingFromResponse(t, resp)["status"])

	// A resident cannot approve.
	w, _ = s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/approve", bookingID), residentToken, gin.H{})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Admin approves with a reason; the reason is retained.
	w, resp = s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/approve", bookingID), adminToken, gin.H{
		"reason": "Approved, enjoy",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	approved := bookingFromResponse(t, resp)
	assert.Equal(t, "approved", approved["status"])
	assert.Equal(t, "Approved, enjoy", approved["reviewReason"])

	// Rejecting an approved booking is an invalid transition and mutates nothing.
	w, resp = s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/reject", bookingID), adminToken, gin.H{})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", resp.Error.Code)

	w, resp = s.request(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", bookingID), residentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approved", bookingFromResponse(t, resp)["status"])

	// Creator cancels; the slot frees up and can be rebooked.
	w, resp = s.request(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/cancel", bookingID), residentToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cancelled", bookingFromResponse(t, resp)["status"])

	w, resp = s.request(t, http.MethodPost, "/api/v1/bookings", residentToken, gin.H{
		"facilityId": hall.ID,
		"title":      "Rebooked slot",
		"date":       "2025-12-05",
		"startTime":  "10:00",
		"endTime":    "12:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "pending", bookingFromResponse(t, resp)["status"])
}

func TestBookingListAndFilters(t *testing.T) {
	s := setupTestSuite(t)

	_, residentToken := s.createUser(t, "anita@residency.test", domain.RoleResident)
	hall := s.createFacility(t, "Community Hall")
	court := s.createFacility(t, "Badminton Court")

	for i, f := range []*domain.Facility{hall, hall, court} {
		w, _ := s.request(t, http.MethodPost, "/api/v1/bookings", residentToken, gin.H{
			"facilityId": f.ID,
			"title":      fmt.Sprintf("Session %d", i+1),
			"date":       "2025-12-05",
			"startTime":  fmt.Sprintf("%02d:00", 9+2*i),
			"endTime":    fmt.Sprintf("%02d:00", 10+2*i),
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w, resp := s.request(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings?facilityId=%d", hall.ID), residentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), resp.Data["total"])

	w, resp = s.request(t, http.MethodGet, "/api/v1/bookings?status=pending", residentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), resp.Data["total"])

	w, resp = s.request(t, http.MethodGet, "/api/v1/bookings?startDate=2025-12-05&endDate=2025-12-05", residentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), resp.Data["total"])

	w, resp = s.request(t, http.MethodGet, "/api/v1/bookings?startDate=2025-12-06&endDate=2025-12-07", residentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp.Data["total"])
}

func TestCalendarEndpoint(t *testing.T) {
	s := setupTestSuite(t)

	_, residentToken := s.createUser(t, "anita@residency.test", domain.RoleResident)
	hallA := s.createFacility(t, "Community Hall")
	hallB := s.createFacility(t, "Banquet Hall")

	// Two overlapping bookings on different facilities: no per-facility
	// conflict, but the combined calendar view flags the day.
	for _, f := range []*domain.Facility{hallA, hallB} {
		w, _ := s.request(t, http.MethodPost, "/api/v1/bookings", residentToken, gin.H{
			"facilityId": f.ID,
			"title":      "Evening event",
			"date":       "2025-12-05",
			"startTime":  "18:00",
			"endTime":    "21:00",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w, resp := s.request(t, http.MethodGet, "/api/v1/bookings/calendar?month=2025-12", residentToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	days := resp.Data["days"].([]interface{})
	require.Len(t, days, 42)

	// Grid starts Sunday Nov 30; Dec 5 is cell 5.
	cell := days[5].(map[string]interface{})
	assert.True(t, cell["hasConflict"].(bool))
	assert.Len(t, cell["bookings"].([]interface{}), 2)

	// Scoped to one facility there is no conflict.
	w, resp = s.request(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/calendar?month=2025-12&facilityId=%d", hallA.ID), residentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cell = resp.Data["days"].([]interface{})[5].(map[string]interface{})
	assert.False(t, cell["hasConflict"].(bool))
	assert.Len(t, cell["bookings"].([]interface{}), 1)
}

func TestAuthFlow(t *testing.T) {
	s := setupTestSuite(t)

	w, resp := s.request(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    "new@residency.test",
		"password": "password123",
		"name":     "New Resident",
		"unit":     "C-502",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := resp.Data["user"].(map[string]interface{})
	assert.Equal(t, "resident", user["role"])

	w, resp = s.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "new@residency.test",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := resp.Data["token"].(string)
	require.NotEmpty(t, token)

	// The token works against protected endpoints.
	w, _ = s.request(t, http.MethodGet, "/api/v1/bookings", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// No token does not.
	w, _ = s.request(t, http.MethodGet, "/api/v1/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInactiveFacilityRejected(t *testing.T) {
	s := setupTestSuite(t)

	_, residentToken := s.createUser(t, "anita@residency.test", domain.RoleResident)
	gym := &domain.Facility{Name: "Old Gym", IsActive: false}
	require.NoError(t, s.db.Create(gym).Error)

	w, resp := s.request(t, http.MethodPost, "/api/v1/bookings", residentToken, gin.H{
		"facilityId": gym.ID,
		"title":      "Workout",
		"date":       "2025-12-05",
		"startTime":  "10:00",
		"endTime":    "11:00",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestFacilityAdminManagement(t *testing.T) {
	s := setupTestSuite(t)

	_, adminToken := s.createUser(t, "admin@residency.test", domain.RoleAdmin)
	_, residentToken := s.createUser(t, "anita@residency.test", domain.RoleResident)

	// Residents cannot manage facilities.
	w, _ := s.request(t, http.MethodPost, "/api/v1/facilities", residentToken, gin.H{
		"name":     "Rooftop Terrace",
		"capacity": 40,
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Field validation runs before any write.
	w, resp := s.request(t, http.MethodPost, "/api/v1/facilities", adminToken, gin.H{
		"name":     "RT",
		"capacity": -1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	w, resp = s.request(t, http.MethodPost, "/api/v1/facilities", adminToken, gin.H{
		"name":     "Rooftop Terrace",
		"capacity": 40,
		"location": "Block C, level 12",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := resp.Data["facility"].(map[string]interface{})
	assert.Equal(t, true, created["isActive"])
	facilityID := int64(created["id"].(float64))

	// Deactivating the facility removes it from the public listing.
	w, _ = s.request(t, http.MethodPut, fmt.Sprintf("/api/v1/facilities/%d", facilityID), adminToken, gin.H{
		"name":     "Rooftop Terrace",
		"capacity": 40,
		"isActive": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = s.request(t, http.MethodGet, "/api/v1/facilities", residentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	facilities := resp.Data["facilities"].([]interface{})
	assert.Empty(t, facilities)
}
