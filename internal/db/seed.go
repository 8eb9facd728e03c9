package database

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
)

// SeedSuperAdmin ensures a bootstrap superadmin account exists so the back
// office is reachable on a fresh database. Credentials come from the
// environment; the default password is only meant for local development.
func SeedSuperAdmin(db *gorm.DB) {
	username := os.Getenv("BUBBLEGUM_ADMIN_USERNAME")
	if username == "" {
		username = "superadmin"
	}
	password := os.Getenv("BUBBLEGUM_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
		log.Println("⚠️ BUBBLEGUM_ADMIN_PASSWORD not set, using default dev password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("⚠️ Failed to hash seed password: %v", err)
		return
	}

	admin := models.Admin{
		Username:     username,
		PasswordHash: string(hash),
		Role:         "superadmin",
	}

	// UPSERT based on 'username' to prevent duplicates on restart
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoNothing: true, // If it exists, leave it alone.
	}).Create(&admin)

	if result.Error != nil {
		log.Printf("⚠️ Failed to seed superadmin: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("🌱 Seeded superadmin account '%s'", username)
	}
}
