// Package security valuta il rischio dei comandi di sistema prima
// dell'esecuzione e mantiene l'audit trail delle decisioni.
package security

import (
	"strings"

	"github.com/Parokor/a0-core-agent/internal/stats"
	"github.com/Parokor/a0-core-agent/pkg/config"
	"github.com/Parokor/a0-core-agent/pkg/database"
	"github.com/Parokor/a0-core-agent/pkg/models"
	"github.com/rs/zerolog/log"
)

// Assessment è il verdetto su un comando
type Assessment struct {
	Command              string `json:"command"`
	RiskLevel            int    `json:"risk_level"` // 0..10
	Allowed              bool   `json:"allowed"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	Reason               string `json:"reason"`
}

// Manager applica la policy di sicurezza configurata
type Manager struct {
	cfg config.SecurityConfig
	db  *database.DB
}

// riskPatterns mappa pattern di comando su livello di rischio; vince il
// livello più alto tra i pattern che matchano
var riskPatterns = []struct {
	pattern string
	level   int
}{
	{"rm -rf", 9},
	{"dd if=", 9},
	{"mkfs", 9},
	{"> /dev/sd", 9},
	{"chmod 777", 7},
	{"chown -r", 6},
	{"| sh", 8},
	{"| bash", 8},
	{"systemctl stop", 5},
	{"systemctl disable", 5},
	{"iptables -f", 7},
	{"kill -9", 4},
	{"pkill", 4},
	{"shutdown", 6},
	{"reboot", 6},
	{"userdel", 7},
	{"passwd", 5},
	{"crontab", 4},
	{"rm ", 3},
	{"mv ", 2},
	{"sudo", 3},
}

// NewManager crea un nuovo security manager. Il database è opzionale:
// senza database l'audit logging viene disattivato.
func NewManager(cfg config.SecurityConfig, db *database.DB) *Manager {
	if cfg.AuditLogging && db == nil {
		log.Warn().Msg("Audit logging requested but no database available, disabling")
		cfg.AuditLogging = false
	}
	return &Manager{cfg: cfg, db: db}
}

// AssessCommand valuta un comando e decide se può essere eseguito.
// La decisione viene sempre registrata nell'audit trail quando attivo.
func (m *Manager) AssessCommand(command string) Assessment {
	a := m.assess(command)

	verdict := "allowed"
	if !a.Allowed {
		verdict = "blocked"
	} else if a.RequiresConfirmation {
		verdict = "confirmation_required"
	}
	stats.CommandsAssessed.WithLabelValues(verdict).Inc()

	if !a.Allowed {
		log.Warn().
			Str("command", command).
			Int("risk", a.RiskLevel).
			Str("reason", a.Reason).
			Msg("Command blocked")
	}

	m.audit(a)
	return a
}

// assess calcola il verdetto senza effetti collaterali
func (m *Manager) assess(command string) Assessment {
	normalized := strings.ToLower(strings.TrimSpace(command))

	a := Assessment{Command: command}

	if normalized == "" {
		a.Reason = "empty command"
		return a
	}

	// Blocklist esplicita: match immediato, rischio massimo
	for _, blocked := range m.cfg.BlockedCommands {
		if blocked != "" && strings.Contains(normalized, strings.ToLower(blocked)) {
			a.RiskLevel = 10
			a.Reason = "matches blocked pattern: " + blocked
			return a
		}
	}

	// Sudo è permesso solo per i comandi in allowlist
	if strings.HasPrefix(normalized, "sudo ") {
		rest := strings.TrimSpace(strings.TrimPrefix(normalized, "sudo "))
		binary := firstField(rest)
		if !m.sudoAllowed(binary) {
			a.RiskLevel = 8
			a.Reason = "sudo not allowed for: " + binary
			return a
		}
	}

	for _, rp := range riskPatterns {
		if strings.Contains(normalized, rp.pattern) && rp.level > a.RiskLevel {
			a.RiskLevel = rp.level
			a.Reason = "matches risk pattern: " + rp.pattern
		}
	}

	if a.RiskLevel > m.cfg.MaxRiskLevel {
		a.Reason = a.Reason + " (exceeds max risk level)"
		return a
	}

	a.Allowed = true
	a.RequiresConfirmation = a.RiskLevel > m.cfg.RequireConfirmationAbove
	if a.Reason == "" {
		a.Reason = "no risk pattern matched"
	}
	return a
}

// sudoAllowed verifica se un binario è nella allowlist sudo
func (m *Manager) sudoAllowed(binary string) bool {
	for _, allowed := range m.cfg.AllowedSudoCommands {
		if strings.EqualFold(binary, allowed) {
			return true
		}
	}
	return false
}

// audit registra il verdetto nel database; best-effort
func (m *Manager) audit(a Assessment) {
	if !m.cfg.AuditLogging || m.db == nil {
		return
	}

	record := models.AuditRecord{
		Command:   a.Command,
		RiskLevel: a.RiskLevel,
		Allowed:   a.Allowed,
		Reason:    a.Reason,
	}
	if err := m.db.Create(&record).Error; err != nil {
		log.Error().Err(err).Msg("Failed to write audit record")
	}
}

// RecentAudit restituisce gli ultimi verdetti registrati
func (m *Manager) RecentAudit(limit int) ([]models.AuditRecord, error) {
	if m.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var records []models.AuditRecord
	err := m.db.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// firstField restituisce il primo campo di una stringa
func firstField(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
