package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// CORSConfig configurazione CORS
type CORSConfig struct {
	// AllowedOrigins lista degli origin permessi; "*" permette tutti
	AllowedOrigins []string

	// MaxAge tempo di cache per le preflight request (in secondi)
	MaxAge int
}

// allowedMethods e allowedHeaders sono fissi: l'API espone solo le
// route dell'agente
var (
	allowedMethods = strings.Join([]string{
		fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions,
	}, ", ")
	allowedHeaders = strings.Join([]string{
		"Origin", "Content-Type", "Accept", "X-Request-ID",
	}, ", ")
)

// CORS middleware per gestire Cross-Origin Resource Sharing
func CORS(config CORSConfig) fiber.Handler {
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"*"}
	}
	if config.MaxAge <= 0 {
		config.MaxAge = 3600
	}

	originAllowed := func(origin string) bool {
		for _, allowed := range config.AllowedOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
		return false
	}

	return func(c fiber.Ctx) error {
		origin := c.Get("Origin")

		// Senza Origin header non è una richiesta CORS
		if origin == "" {
			return c.Next()
		}

		if !originAllowed(origin) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "origin not allowed",
			})
		}

		c.Set("Access-Control-Allow-Origin", origin)

		if c.Method() == fiber.MethodOptions {
			c.Set("Access-Control-Allow-Methods", allowedMethods)
			c.Set("Access-Control-Allow-Headers", allowedHeaders)
			c.Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
			return c.SendStatus(fiber.StatusNoContent)
		}

		return c.Next()
	}
}
