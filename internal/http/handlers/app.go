package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"levelforge/internal/dispatch"
	"levelforge/internal/generator"
	"levelforge/internal/guard"
	"levelforge/internal/i18n"
	"levelforge/internal/orchestrator"
	"levelforge/internal/statuscache"
)

// App bundles the collaborators every handler needs.
type App struct {
	Guard         *guard.Guard
	Router        *dispatch.Router
	Orch          *orchestrator.Orchestrator
	Cache         *statuscache.Cache
	Gen           generator.Generator
	Logger        zerolog.Logger
	DefaultLocale string
}

func NewApp(g *guard.Guard, router *dispatch.Router, orch *orchestrator.Orchestrator, cache *statuscache.Cache, gen generator.Generator, logger zerolog.Logger, defaultLocale string) *App {
	return &App{
		Guard:         g,
		Router:        router,
		Orch:          orch,
		Cache:         cache,
		Gen:           gen,
		Logger:        logger,
		DefaultLocale: defaultLocale,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Errors []string `json:"errors,omitempty"`
}

// fail writes a taxonomy error. The message is either a localized key or,
// for validation detail, the safe text produced by the guard layer.
func (a *App) fail(w http.ResponseWriter, r *http.Request, status int, code, messageKey string, details ...string) {
	locale := i18n.Pick(r.Header.Get("Accept-Language"), a.DefaultLocale)
	// Unknown keys fall through i18n.T as literal safe messages.
	a.json(w, status, errorBody{Error: i18n.T(locale, messageKey), Code: code, Errors: details})
}
