package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwise/fieldwise/internal/config"
)

func TestNewRootCommand_HasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"edit", "show", "seed", "validate"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestLoadBundle_DefaultWhenNoPath(t *testing.T) {
	bundle, err := loadBundle(config.Default(), "")
	require.NoError(t, err)
	assert.Equal(t, "customer", bundle.Schema.Name())
}

func TestLoadBundle_FlagWinsOverConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pet.cue")
	src := `
catalog: {
	name: "pet"
	fields: [{name: "species", kind: "text"}]
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	cfg := config.Default()
	cfg.CatalogPath = "does-not-exist.cue"

	bundle, err := loadBundle(cfg, path)
	require.NoError(t, err)
	assert.Equal(t, "pet", bundle.Schema.Name())
}

func TestOpenStore_Memory(t *testing.T) {
	cfg := config.Default()
	cfg.StoreDriver = "memory"

	bundle, err := loadBundle(cfg, "")
	require.NoError(t, err)

	s, closeStore, err := openStore(context.Background(), cfg, bundle)
	require.NoError(t, err)
	defer closeStore()
	assert.NotNil(t, s)
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "test.db")

	bundle, err := loadBundle(cfg, "")
	require.NoError(t, err)

	s, closeStore, err := openStore(context.Background(), cfg, bundle)
	require.NoError(t, err)
	defer closeStore()
	assert.NotNil(t, s)
}

func TestRunValidate_PrintsSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "customer.cue")
	src := `
catalog: {
	name: "customer"
	fields: [
		{name: "name", kind: "text"},
		{name: "tier", kind: "enum", tokens: ["standard", "premium"]},
		{name: "account_manager", kind: "text", optional: true},
	]
	rules: [
		{name: "r1", field: "tier", to: "premium", requires: "account_manager"},
	]
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	require.NoError(t, runValidate(path))

	assert.Error(t, runValidate(filepath.Join(dir, "missing.cue")))
}
