package pipeline

import (
	"github.com/Parokor/a0-core-agent/internal/providers"
	"github.com/Parokor/a0-core-agent/pkg/config"
)

// defaultOrder è l'ordine di fallback quando la configurazione non ne
// definisce uno
var defaultOrder = []string{"groq", "openrouter"}

// RoutingTable mappa ogni task type su una lista ordinata di provider
// (primo = preferito). È immutabile dopo la costruzione: le decisioni di
// routing non cambiano a runtime.
type RoutingTable struct {
	routes   map[providers.TaskType][]string
	fallback []string
}

// NewRoutingTable costruisce la tabella a partire dalla configurazione.
// Le route e l'ordine di default vengono copiati: mutazioni successive
// della config non hanno effetto.
func NewRoutingTable(cfg config.RoutingConfig) *RoutingTable {
	fallback := cfg.DefaultOrder
	if len(fallback) == 0 {
		fallback = defaultOrder
	}

	t := &RoutingTable{
		routes:   make(map[providers.TaskType][]string, len(cfg.Routes)),
		fallback: append([]string(nil), fallback...),
	}

	for key, order := range cfg.Routes {
		task := providers.ParseTaskType(key)
		t.routes[task] = append([]string(nil), order...)
	}

	return t
}

// Resolve restituisce l'ordine di provider per un task type. I task type
// non mappati usano l'ordine di default; il risultato non è mai vuoto ed
// è una copia che il chiamante può modificare liberamente.
func (t *RoutingTable) Resolve(task providers.TaskType) []string {
	order, ok := t.routes[task]
	if !ok || len(order) == 0 {
		order = t.fallback
	}
	return append([]string(nil), order...)
}

// Routes restituisce una copia dell'intera tabella, per introspezione
func (t *RoutingTable) Routes() map[string][]string {
	out := make(map[string][]string, len(t.routes))
	for task, order := range t.routes {
		out[string(task)] = append([]string(nil), order...)
	}
	return out
}
