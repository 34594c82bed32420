package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"residency/internal/config"
	"residency/internal/database"
	"residency/internal/domain"
	"residency/internal/middleware"
	"residency/internal/modules/auth"
	"residency/internal/modules/booking"
	"residency/internal/modules/events"
	"residency/internal/modules/facility"
	jwtsvc "residency/internal/pkg/jwt"
	"residency/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Facility{},
		&domain.Booking{},
	); err != nil {
		log.Fatal(err)
	}
	if err := repository.EnsureBookingConstraints(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	hub := events.NewHub()
	defer hub.Close()

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	facilityHandler := facility.NewHandler(facilityRepo)

	bookingService := booking.NewService(bookingRepo, facilityRepo, hub)
	bookingHandler := booking.NewHandler(bookingService)

	eventsHandler := events.NewHandler(hub, j)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterRoutes(v1)
		facilityHandler.RegisterRoutes(v1)

		// token auth happens inside the socket handshake
		eventsHandler.RegisterRoutes(v1)

		// protected
		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			bookingHandler.RegisterRoutes(protected)

			admin := protected.Group("/")
			admin.Use(middleware.AdminOnly())
			{
				bookingHandler.RegisterAdminRoutes(admin)
				facilityHandler.RegisterAdminRoutes(admin)
			}
		}
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
