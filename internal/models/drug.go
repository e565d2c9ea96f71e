package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserDrug is a drug a user has registered as currently taking.
// A user can register each drug name only once; re-registering updates it.
type UserDrug struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID       uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_drug,priority:1" json:"user_id"`
	DrugName     string    `gorm:"size:100;not null;uniqueIndex:idx_user_drug,priority:2" json:"drug_name"`
	Ingredient   string    `gorm:"size:100" json:"ingredient"`
	Category     string    `gorm:"size:50" json:"category"`
	Dosage       string    `gorm:"size:100" json:"dosage"`
	Notes        string    `gorm:"type:text" json:"notes"`
	RegisteredAt time.Time `gorm:"autoCreateTime" json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (d *UserDrug) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Drug is a reference catalog entry loaded from drugs.csv.
type Drug struct {
	ID          uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Ingredient  string    `gorm:"size:100" json:"ingredient"`
	Category    string    `gorm:"size:50" json:"category"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *Drug) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Food is a reference catalog entry loaded from foods.csv.
type Food struct {
	ID          uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Category    string    `gorm:"size:50" json:"category"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (f *Food) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
