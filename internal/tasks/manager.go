// Package tasks implementa la coda di task persistente: le richieste di
// generazione accodate vengono raccolte da un poller ed eseguite dalla
// pipeline con concorrenza limitata.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Parokor/a0-core-agent/internal/pipeline"
	"github.com/Parokor/a0-core-agent/internal/providers"
	"github.com/Parokor/a0-core-agent/internal/stats"
	"github.com/Parokor/a0-core-agent/pkg/database"
	"github.com/Parokor/a0-core-agent/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Manager gestisce il ciclo di vita dei task accodati
type Manager struct {
	db   *database.DB
	pipe *pipeline.Pipeline

	pollInterval  time.Duration
	maxConcurrent int

	sem      chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager crea un nuovo task manager
func NewManager(db *database.DB, pipe *pipeline.Pipeline, pollInterval time.Duration, maxConcurrent int) *Manager {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &Manager{
		db:            db,
		pipe:          pipe,
		pollInterval:  pollInterval,
		maxConcurrent: maxConcurrent,
		sem:           make(chan struct{}, maxConcurrent),
		stop:          make(chan struct{}),
	}
}

// Submit accoda una nuova richiesta di generazione
func (m *Manager) Submit(prompt string, taskType providers.TaskType) (*models.Task, error) {
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	task := &models.Task{
		Prompt:   prompt,
		TaskType: string(taskType),
		Status:   models.TaskStatusPending,
	}
	if err := m.db.Create(task).Error; err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Info().
		Str("task_id", task.ID.String()).
		Str("task_type", task.TaskType).
		Msg("Task enqueued")
	return task, nil
}

// Get restituisce un task per ID
func (m *Manager) Get(id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := m.db.First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List restituisce i task più recenti, opzionalmente filtrati per stato
func (m *Manager) List(status models.TaskStatus, limit int) ([]models.Task, error) {
	if limit <= 0 {
		limit = 50
	}

	query := m.db.Order("created_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var out []models.Task
	err := query.Find(&out).Error
	return out, err
}

// Start avvia il poller in background
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.pollInterval)
		defer ticker.Stop()

		log.Info().
			Dur("poll_interval", m.pollInterval).
			Int("max_concurrent", m.maxConcurrent).
			Msg("Task poller started")

		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.dispatchPending(ctx)
			}
		}
	}()
}

// dispatchPending raccoglie i task pending e li avvia, rispettando il
// limite di concorrenza
func (m *Manager) dispatchPending(ctx context.Context) {
	free := m.maxConcurrent - len(m.sem)
	if free <= 0 {
		return
	}

	var pending []models.Task
	err := m.db.Where("status = ?", models.TaskStatusPending).
		Order("created_at ASC").
		Limit(free).
		Find(&pending).Error
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch pending tasks")
		return
	}

	for i := range pending {
		task := pending[i]

		now := time.Now().UTC()
		res := m.db.Model(&models.Task{}).
			Where("id = ? AND status = ?", task.ID, models.TaskStatusPending).
			Updates(map[string]any{"status": models.TaskStatusRunning, "started_at": now})
		if res.Error != nil || res.RowsAffected == 0 {
			// Già preso in carico altrove
			continue
		}

		select {
		case m.sem <- struct{}{}:
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		}

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			defer func() { <-m.sem }()
			m.runTask(ctx, &task)
		}()
	}
}

// runTask esegue un task attraverso la pipeline e persiste l'esito
func (m *Manager) runTask(ctx context.Context, task *models.Task) {
	resp := m.pipe.GenerateResponse(ctx, task.Prompt, providers.ParseTaskType(task.TaskType), nil)

	now := time.Now().UTC()
	updates := map[string]any{
		"provider":     resp.Provider,
		"model":        resp.Model,
		"tokens_used":  resp.TokensUsed,
		"confidence":   resp.Confidence,
		"duration_ms":  resp.ExecutionTime.Milliseconds(),
		"completed_at": now,
	}

	if resp.Success {
		updates["status"] = models.TaskStatusCompleted
		updates["content"] = resp.Content
		stats.TasksProcessed.WithLabelValues("completed").Inc()
	} else {
		updates["status"] = models.TaskStatusFailed
		updates["error"] = resp.Error
		stats.TasksProcessed.WithLabelValues("failed").Inc()
	}

	if err := m.db.Model(&models.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
		log.Error().Err(err).Str("task_id", task.ID.String()).Msg("Failed to persist task result")
		return
	}

	log.Info().
		Str("task_id", task.ID.String()).
		Str("provider", resp.Provider).
		Bool("success", resp.Success).
		Msg("Task processed")
}

// PruneCompleted elimina i task terminali più vecchi della soglia
func (m *Manager) PruneCompleted(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res := m.db.Where("status IN ? AND completed_at < ?",
		[]models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusFailed}, cutoff).
		Delete(&models.Task{})
	return res.RowsAffected, res.Error
}

// Shutdown ferma il poller e attende i task in volo; idempotente
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	m.wg.Wait()
	log.Info().Msg("Task manager stopped")
}
