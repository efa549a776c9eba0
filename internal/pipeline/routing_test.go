package pipeline

import (
	"testing"

	"github.com/Parokor/a0-core-agent/internal/providers"
	"github.com/Parokor/a0-core-agent/pkg/config"
)

func TestResolveMappedTask(t *testing.T) {
	table := NewRoutingTable(config.RoutingConfig{
		Routes: map[string][]string{
			"code_generation": {"codestral", "groq"},
		},
		DefaultOrder: []string{"groq", "openrouter"},
	})

	order := table.Resolve(providers.TaskCodeGeneration)
	if len(order) != 2 || order[0] != "codestral" || order[1] != "groq" {
		t.Errorf("order = %v", order)
	}
}

func TestResolveUnmappedTaskUsesDefault(t *testing.T) {
	table := NewRoutingTable(config.RoutingConfig{
		Routes:       map[string][]string{"general": {"groq"}},
		DefaultOrder: []string{"openrouter", "groq"},
	})

	order := table.Resolve(providers.TaskWebAutomation)
	if len(order) != 2 || order[0] != "openrouter" {
		t.Errorf("order = %v", order)
	}
}

func TestResolveNeverEmpty(t *testing.T) {
	table := NewRoutingTable(config.RoutingConfig{})

	order := table.Resolve(providers.TaskGeneral)
	if len(order) == 0 {
		t.Fatal("resolve must never return an empty order")
	}
}

func TestResolveReturnsCopy(t *testing.T) {
	table := NewRoutingTable(config.RoutingConfig{
		Routes: map[string][]string{"general": {"groq", "openrouter"}},
	})

	first := table.Resolve(providers.TaskGeneral)
	first[0] = "tampered"

	second := table.Resolve(providers.TaskGeneral)
	if second[0] != "groq" {
		t.Error("mutating a resolved order must not affect the table")
	}
}

func TestTableCopiesConfig(t *testing.T) {
	routes := map[string][]string{"general": {"groq"}}
	table := NewRoutingTable(config.RoutingConfig{Routes: routes})

	routes["general"][0] = "tampered"

	if order := table.Resolve(providers.TaskGeneral); order[0] != "groq" {
		t.Error("mutating the source config must not affect the table")
	}
}
