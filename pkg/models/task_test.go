package models

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&Task{}, &AuditRecord{}); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestTaskIDGeneratedOnCreate(t *testing.T) {
	db := testDB(t)

	task := &Task{Prompt: "hello", TaskType: "general", Status: TaskStatusPending}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID == uuid.Nil {
		t.Error("ID must be generated on create")
	}

	// Un ID esplicito non va sovrascritto
	fixed := uuid.New()
	task2 := &Task{ID: fixed, Prompt: "again", TaskType: "general", Status: TaskStatusPending}
	if err := db.Create(task2).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if task2.ID != fixed {
		t.Error("explicit ID must be kept")
	}
}

func TestTaskIsTerminal(t *testing.T) {
	cases := []struct {
		status TaskStatus
		want   bool
	}{
		{TaskStatusPending, false},
		{TaskStatusRunning, false},
		{TaskStatusCompleted, true},
		{TaskStatusFailed, true},
	}

	for _, tc := range cases {
		task := Task{Status: tc.status}
		if got := task.IsTerminal(); got != tc.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestAuditRecordIDGenerated(t *testing.T) {
	db := testDB(t)

	record := &AuditRecord{Command: "ls", RiskLevel: 0, Allowed: true}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if record.ID == uuid.Nil {
		t.Error("ID must be generated on create")
	}
}
