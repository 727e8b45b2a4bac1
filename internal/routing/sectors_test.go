package routing

import (
	"testing"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/config"
)

func TestCatalogResolve(t *testing.T) {
	cat := DefaultCatalog()

	tests := []struct {
		name   string
		intent string
		want   string
	}{
		{"mapped intent", "comercial", "comercial"},
		{"human escalation intent", "atendente", "atendimento_humano"},
		{"uppercase intent", "ATENDENTE", "atendimento_humano"},
		{"pass-through valid sector", "atendimento_humano", "atendimento_humano"},
		{"unknown intent", "pedido_de_pizza", ""},
		{"empty intent", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cat.Resolve(tt.intent); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.intent, got, tt.want)
			}
		})
	}
}

func TestCatalogValid(t *testing.T) {
	cat := DefaultCatalog()
	if !cat.Valid("rh") {
		t.Error("rh should be a valid sector")
	}
	if cat.Valid("suporte") {
		t.Error("suporte is not in the catalog")
	}
}

func TestCatalogFromConfig(t *testing.T) {
	cat := CatalogFromConfig(config.RoutingConfig{
		Sectors:        []string{"vendas", "suporte"},
		IntentToSector: map[string]string{"venda": "vendas"},
		Escalation:     "suporte",
	})
	if !cat.Valid("vendas") || cat.Valid("comercial") {
		t.Error("configured sectors should replace the defaults")
	}
	if got := cat.Resolve("venda"); got != "vendas" {
		t.Errorf("Resolve(venda) = %q, want vendas", got)
	}
	if cat.Escalation != "suporte" {
		t.Errorf("Escalation = %q, want suporte", cat.Escalation)
	}
	// Fields left empty keep their defaults.
	if cat.HandoffDefault != "atendimento_humano" {
		t.Errorf("HandoffDefault = %q, want atendimento_humano", cat.HandoffDefault)
	}
}
