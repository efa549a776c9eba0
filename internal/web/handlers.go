package web

import (
	"github.com/Parokor/a0-core-agent/internal/providers"
	"github.com/Parokor/a0-core-agent/internal/system"
	"github.com/Parokor/a0-core-agent/pkg/models"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// generateRequest è il body di POST /v1/generate e POST /tasks
type generateRequest struct {
	Prompt       string   `json:"prompt"`
	TaskType     string   `json:"task_type"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
}

// handleHealth riporta lo stato aggregato dei provider.
// overall_status: healthy (tutti i disponibili rispondono), degraded
// (qualcuno non risponde), limited (nessun provider disponibile).
func (s *Server) handleHealth(c fiber.Ctx) error {
	report := s.pipe.HealthCheck(c.RequestCtx())

	overall := "healthy"
	status := fiber.StatusOK
	switch {
	case report.Available == 0:
		overall = "limited"
		status = fiber.StatusServiceUnavailable
	case report.Healthy < report.Available:
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"overall_status": overall,
		"total":          report.Total,
		"available":      report.Available,
		"healthy":        report.Healthy,
		"providers":      report.Providers,
		"system":         system.Collect(),
	})
}

// handleConnectivity esegue un probe fresco su tutti i provider
func (s *Server) handleConnectivity(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"providers": s.pipe.CheckConnectivity(c.RequestCtx()),
	})
}

// handleSystem riporta lo snapshot dell'host
func (s *Server) handleSystem(c fiber.Ctx) error {
	return c.JSON(system.Collect())
}

// handleRouting espone la tabella di routing attiva
func (s *Server) handleRouting(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"routes": s.pipe.Routing().Routes(),
	})
}

// handleGenerate esegue una generazione sincrona attraverso la pipeline
func (s *Server) handleGenerate(c fiber.Ctx) error {
	var req generateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "prompt is required",
		})
	}

	resp := s.pipe.GenerateResponse(
		c.RequestCtx(),
		req.Prompt,
		providers.ParseTaskType(req.TaskType),
		&providers.Options{
			SystemPrompt: req.SystemPrompt,
			MaxTokens:    req.MaxTokens,
			Temperature:  req.Temperature,
		},
	)

	if !resp.Success && resp.Provider == "none" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

// handleSubmitTask accoda una richiesta per l'esecuzione asincrona
func (s *Server) handleSubmitTask(c fiber.Ctx) error {
	var req generateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	task, err := s.taskMgr.Submit(req.Prompt, providers.ParseTaskType(req.TaskType))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(task)
}

// handleListTasks restituisce i task più recenti
func (s *Server) handleListTasks(c fiber.Ctx) error {
	status := models.TaskStatus(c.Query("status"))
	limit := fiber.Query[int](c, "limit", 50)

	list, err := s.taskMgr.List(status, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list tasks",
		})
	}

	return c.JSON(fiber.Map{"tasks": list, "count": len(list)})
}

// handleGetTask restituisce un task per ID
func (s *Server) handleGetTask(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid task id",
		})
	}

	task, err := s.taskMgr.Get(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "task not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch task",
		})
	}

	return c.JSON(task)
}

// assessRequest è il body di POST /security/assess
type assessRequest struct {
	Command string `json:"command"`
}

// handleAssess valuta il rischio di un comando
func (s *Server) handleAssess(c fiber.Ctx) error {
	var req assessRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	return c.JSON(s.secMgr.AssessCommand(req.Command))
}

// handleAudit restituisce gli ultimi verdetti di sicurezza
func (s *Server) handleAudit(c fiber.Ctx) error {
	limit := fiber.Query[int](c, "limit", 50)

	records, err := s.secMgr.RecentAudit(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch audit records",
		})
	}

	return c.JSON(fiber.Map{"records": records, "count": len(records)})
}
