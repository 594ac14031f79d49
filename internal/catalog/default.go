package catalog

import (
	"github.com/fieldwise/fieldwise/internal/record"
	"github.com/fieldwise/fieldwise/internal/rules"
)

// Default returns the built-in customer catalog: a representative mix of
// every field kind plus the tier/account-manager gating pair. Used when
// no catalog file is configured.
func Default() *Bundle {
	schema, err := record.NewSchema("customer", []record.FieldDef{
		{Name: "name", Label: "Name", Kind: record.KindText, MaxLen: 80},
		{Name: "notes", Label: "Notes", Kind: record.KindLongText, Optional: true, MaxLen: 2000},
		{Name: "tier", Label: "Tier", Kind: record.KindEnum, Tokens: []string{"standard", "premium"}},
		{Name: "account_manager", Label: "Account manager", Kind: record.KindText, Optional: true, MaxLen: 80},
		{Name: "age", Label: "Age", Kind: record.KindInt, Min: 0, Max: 120, Optional: true},
		{Name: "joined", Label: "Joined", Kind: record.KindDate, Optional: true},
		{Name: "active", Label: "Active", Kind: record.KindBool, Optional: true},
	})
	if err != nil {
		panic("default catalog invalid: " + err.Error())
	}
	return &Bundle{
		Schema: schema,
		Triggers: []rules.Trigger{
			{Name: "premium-needs-manager", Field: "tier", To: "premium", Requires: "account_manager"},
			{Name: "standard-clears-manager", Field: "tier", To: "standard", Clears: "account_manager"},
		},
	}
}
