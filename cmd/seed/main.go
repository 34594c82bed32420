package main

import (
	"fmt"
	"log"
	"time"

	"residency/internal/database"
	"residency/internal/domain"
	"residency/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	db, err := database.Connect("residency.db")
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Facility{},
		&domain.Booking{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}
	if err := repository.EnsureBookingConstraints(db); err != nil {
		log.Fatal("Constraint setup failed:", err)
	}

	// Cleanup old data.
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM facilities")
	db.Exec("DELETE FROM users")

	// ================== USERS ==================
	log.Println("Creating users...")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:        "admin@nextgen-residency.test",
		PasswordHash: string(adminHash),
		Role:         domain.RoleAdmin,
		Name:         "Society Admin",
		IsApproved:   true,
	}
	db.Create(&admin)
	log.Println("Admin created: admin@nextgen-residency.test / admin123")

	residents := []domain.User{}
	residentEmails := []string{"anita@mail.test", "rahul@mail.test", "meera@mail.test"}
	for i, email := range residentEmails {
		hash, _ := bcrypt.GenerateFromPassword([]byte("resident123"), bcrypt.DefaultCost)
		resident := domain.User{
			Email:        email,
			PasswordHash: string(hash),
			Role:         domain.RoleResident,
			Name:         fmt.Sprintf("Resident %d", i+1),
			Unit:         fmt.Sprintf("B-%d0%d", i+1, i+2),
			IsApproved:   true,
		}
		db.Create(&resident)
		residents = append(residents, resident)
	}

	// ================== FACILITIES ==================
	log.Println("Creating facilities...")

	facilities := []domain.Facility{
		{Name: "Community Hall", Description: "Main hall for events and functions", Capacity: 120, Location: "Tower A, Ground Floor", IsActive: true},
		{Name: "Badminton Court", Description: "Indoor court, shoes required", Capacity: 4, Location: "Clubhouse", IsActive: true},
		{Name: "Swimming Pool Deck", Description: "Poolside area for private gatherings", Capacity: 40, Location: "Podium Level", IsActive: true},
		{Name: "Old Gym", Description: "Closed for renovation", Capacity: 20, Location: "Tower C Basement", IsActive: false},
	}
	for i := range facilities {
		db.Create(&facilities[i])
	}

	// ================== BOOKINGS ==================
	log.Println("Creating bookings...")

	nextSaturday := upcoming(time.Saturday)
	bookings := []domain.Booking{
		{
			FacilityID: facilities[0].ID,
			Title:      "Housewarming party",
			CreatedBy:  residents[0].ID,
			StartTime:  nextSaturday.Add(10 * time.Hour),
			EndTime:    nextSaturday.Add(13 * time.Hour),
			Status:     domain.BookingApproved,
			ReviewedBy: &admin.ID,
		},
		{
			FacilityID: facilities[0].ID,
			Title:      "Society AGM",
			CreatedBy:  residents[1].ID,
			StartTime:  nextSaturday.Add(15 * time.Hour),
			EndTime:    nextSaturday.Add(17 * time.Hour),
			Status:     domain.BookingPending,
		},
		{
			FacilityID: facilities[1].ID,
			Title:      "Morning doubles",
			CreatedBy:  residents[2].ID,
			StartTime:  nextSaturday.Add(7 * time.Hour),
			EndTime:    nextSaturday.Add(9 * time.Hour),
			Status:     domain.BookingPending,
		},
	}
	for i := range bookings {
		db.Create(&bookings[i])
	}

	log.Println("Seed complete.")
}

func upcoming(day time.Weekday) time.Time {
	now := time.Now().UTC()
	d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for d.Weekday() != day || !d.After(now) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
