package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type EmailStatus string

const (
	EmailStatusSent   EmailStatus = "sent"
	EmailStatusFailed EmailStatus = "failed"
)

// EmailLog records every notification delivery attempt.
type EmailLog struct {
	ID           uuid.UUID   `json:"id" gorm:"primaryKey;type:uuid"`
	Recipient    string      `json:"recipient" gorm:"size:255;not null;index"`
	Subject      string      `json:"subject" gorm:"size:255;not null"`
	Body         string      `json:"body" gorm:"type:text;not null"`
	Status       EmailStatus `json:"status" gorm:"type:varchar(16);not null"`
	ErrorMessage *string     `json:"error_message" gorm:"type:text"`
	Attempts     int         `json:"attempts" gorm:"not null;default:1"`
	SentAt       time.Time   `json:"sent_at" gorm:"not null"`
}

func (e *EmailLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		e.ID = id
	}
	return nil
}
