package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus rappresenta lo stato di un task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Task rappresenta una richiesta di generazione accodata
type Task struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`

	Prompt   string     `json:"prompt" gorm:"not null"`
	TaskType string     `json:"task_type" gorm:"not null;index"`
	Status   TaskStatus `json:"status" gorm:"not null;index;default:pending"`

	// Esito (valorizzato a task completato)
	Provider   string  `json:"provider"`
	Model      string  `json:"model"`
	Content    string  `json:"content"`
	TokensUsed int     `json:"tokens_used"`
	Confidence float64 `json:"confidence"`
	DurationMs int64   `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// BeforeCreate hook per generare UUID
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsTerminal verifica se il task ha raggiunto uno stato finale
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}
