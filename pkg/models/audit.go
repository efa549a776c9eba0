package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRecord rappresenta una valutazione di sicurezza registrata
type AuditRecord struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`

	Command   string `json:"command" gorm:"not null"`
	RiskLevel int    `json:"risk_level" gorm:"not null"`
	Allowed   bool   `json:"allowed" gorm:"not null;index"`
	Reason    string `json:"reason"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate hook per generare UUID
func (a *AuditRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
