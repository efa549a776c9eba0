package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadDotenv carica variabili d'ambiente da un file .env, se presente.
// Va eseguito prima di Resolve, così i placeholder vedono anche i valori
// del file.
func LoadDotenv(path string) {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); err != nil {
		return
	}

	if err := godotenv.Load(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to load .env file")
		return
	}

	log.Debug().Str("path", path).Msg(".env file loaded")
}

// Resolve espande i placeholder ${VAR} nella configurazione usando le
// variabili d'ambiente. È uno stadio distinto che viene completato prima
// di costruire qualunque provider: un placeholder la cui variabile non è
// definita resta invariato, così il provider si considera non configurato
// e fallisce l'init senza tentare chiamate.
func (c *Config) Resolve() {
	resolved := 0
	unresolved := 0

	for name, p := range c.Providers {
		p.Endpoint = expandEnv(p.Endpoint)
		p.APIKey = expandEnv(p.APIKey)

		if IsPlaceholder(p.APIKey) {
			unresolved++
			log.Warn().
				Str("provider", name).
				Str("placeholder", p.APIKey).
				Msg("Provider credential not resolved")
		} else if p.APIKey != "" {
			resolved++
		}

		c.Providers[name] = p
	}

	log.Info().
		Int("resolved", resolved).
		Int("unresolved", unresolved).
		Msg("Provider credentials resolved")
}

// expandEnv sostituisce ogni ${VAR} con il valore della variabile
// d'ambiente; i placeholder senza valore restano invariati
func expandEnv(s string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

// IsPlaceholder verifica se un valore è ancora un placeholder ${VAR}
// non espanso
func IsPlaceholder(s string) bool {
	return strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}")
}

// MaskSecret maschera una credenziale per il logging e l'output CLI
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if IsPlaceholder(s) {
		return s
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Masked restituisce una copia della configurazione con le credenziali
// mascherate, adatta a essere stampata
func (c *Config) Masked() Config {
	out := *c
	out.Providers = make(map[string]ProviderConfig, len(c.Providers))
	for name, p := range c.Providers {
		p.APIKey = MaskSecret(p.APIKey)
		out.Providers[name] = p
	}
	return out
}
