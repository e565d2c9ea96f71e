package main

import (
	"context"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"

	"github.com/yakgung/drugfood-guard/backend/config"
	"github.com/yakgung/drugfood-guard/backend/internal/database"
	"github.com/yakgung/drugfood-guard/backend/internal/models"
)

// Creates a demo account with a couple of registered drugs so a fresh
// environment has something to chat about. Not for production.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(db, "migrations"); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	ctx := context.Background()

	hashed, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	user := models.User{
		Name:         "데모 사용자",
		Email:        "demo@drugfood.local",
		PasswordHash: string(hashed),
	}
	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&user).Error
	if err != nil {
		log.Fatalf("failed to create demo user: %v", err)
	}

	var saved models.User
	if err := db.WithContext(ctx).Where("email = ?", user.Email).First(&saved).Error; err != nil {
		log.Fatalf("failed to load demo user: %v", err)
	}

	drugs := []models.UserDrug{
		{UserID: saved.ID, DrugName: "와파린", Ingredient: "warfarin", Category: "항응고제", Dosage: "5mg 1일 1회"},
		{UserID: saved.ID, DrugName: "타이레놀", Ingredient: "acetaminophen", Category: "소염진통제", Dosage: "500mg 필요시"},
	}
	for i := range drugs {
		err := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "drug_name"}},
			DoNothing: true,
		}).Create(&drugs[i]).Error
		if err != nil {
			log.Fatalf("failed to register demo drug: %v", err)
		}
	}

	log.Printf("demo user ready: %s / demo1234", saved.Email)
}
