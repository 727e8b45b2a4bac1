// Package routing maps classifier intents to handoff sectors and manages
// the per-sector FIFO wait lines for human operators.
package routing

import (
	"strings"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/config"
)

// Catalog is the single authoritative sector configuration, shared by the
// queue router, queue-size reporting and sector validation.
type Catalog struct {
	Sectors        []string
	IntentToSector map[string]string
	// Escalation receives conversations whose intent is an explicit
	// request for a human operator.
	Escalation string
	// HandoffDefault receives handoffs when no sector resolved.
	HandoffDefault string
	// NotifyFallback labels notifications for conversations without a sector.
	NotifyFallback string
}

// DefaultCatalog returns the built-in sector configuration.
func DefaultCatalog() Catalog {
	return Catalog{
		Sectors: []string{
			"comercial",
			"compras",
			"contas_pagar",
			"contas_receber",
			"rh",
			"atendimento_humano",
			"geral",
			"outros",
		},
		IntentToSector: map[string]string{
			"comercial":      "comercial",
			"compras":        "compras",
			"contas_pagar":   "contas_pagar",
			"contas_receber": "contas_receber",
			"rh":             "rh",
			"atendente":      "atendimento_humano",
			"geral":          "geral",
			"outros":         "outros",
		},
		Escalation:     "atendimento_humano",
		HandoffDefault: "atendimento_humano",
		NotifyFallback: "comercial",
	}
}

// CatalogFromConfig overlays config overrides onto the default catalog.
func CatalogFromConfig(cfg config.RoutingConfig) Catalog {
	cat := DefaultCatalog()
	if len(cfg.Sectors) > 0 {
		cat.Sectors = cfg.Sectors
	}
	if len(cfg.IntentToSector) > 0 {
		cat.IntentToSector = cfg.IntentToSector
	}
	if cfg.Escalation != "" {
		cat.Escalation = cfg.Escalation
	}
	if cfg.HandoffDefault != "" {
		cat.HandoffDefault = cfg.HandoffDefault
	}
	if cfg.NotifyFallback != "" {
		cat.NotifyFallback = cfg.NotifyFallback
	}
	return cat
}

// Valid reports whether sector is in the catalog.
func (c Catalog) Valid(sector string) bool {
	for _, s := range c.Sectors {
		if s == sector {
			return true
		}
	}
	return false
}

// Resolve maps an intent to a sector: the mapping table first, then
// pass-through when the intent already names a valid sector, otherwise
// no sector.
func (c Catalog) Resolve(intent string) string {
	intent = strings.ToLower(intent)
	if sector, ok := c.IntentToSector[intent]; ok {
		return sector
	}
	if c.Valid(intent) {
		return intent
	}
	return ""
}
