package migrations

import (
	"testing"

	"go-fleetdata/pkg/migrations"

	"github.com/stretchr/testify/assert"
)

func TestRegisteredMigrations(t *testing.T) {
	runner := migrations.NewRunner(nil)
	RegisterAll(runner)

	var versions []string
	for _, m := range runner.Migrations() {
		assert.NotNil(t, m.Up, m.Version)
		assert.NotNil(t, m.Down, m.Version)
		versions = append(versions, m.Version)
	}
	assert.Equal(t, []string{
		"001_create_collections_indexes",
		"002_create_children_unique_indexes",
		"003_create_history_indexes",
		"004_seed_collection_counter",
	}, versions)
}
