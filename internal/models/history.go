package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QueryHistory records one chat question and the answer that was returned.
type QueryHistory struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID       uuid.UUID `gorm:"type:varchar(36);not null;index" json:"user_id"`
	QueryText    string    `gorm:"type:text;not null" json:"query_text"`
	ResponseText string    `gorm:"type:text" json:"response_text"`
	RiskSummary  string    `gorm:"type:varchar(20)" json:"risk_summary"`
	QueriedAt    time.Time `gorm:"autoCreateTime" json:"queried_at"`
}

func (q *QueryHistory) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
