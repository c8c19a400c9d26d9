package migrations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(versions ...string) *Runner {
	r := NewRunner(nil)
	for _, v := range versions {
		r.Register(RegisteredMigration{Version: v, Description: "migration " + v})
	}
	return r
}

func TestRegisterSortsByVersion(t *testing.T) {
	r := newTestRunner("003_c", "001_a", "002_b")

	var versions []string
	for _, m := range r.Migrations() {
		versions = append(versions, m.Version)
	}
	assert.Equal(t, []string{"001_a", "002_b", "003_c"}, versions)
}

func TestPendingAndStatus(t *testing.T) {
	r := newTestRunner("001_a", "002_b", "003_c")
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	applied := []Migration{{Version: "001_a", AppliedAt: at}}

	pending := r.Pending(applied)
	require.Len(t, pending, 2)
	assert.Equal(t, "002_b", pending[0].Version)

	status := r.StatusOf(applied)
	require.Len(t, status, 3)
	assert.True(t, status[0].Applied)
	assert.Equal(t, at, status[0].AppliedAt)
	assert.False(t, status[2].Applied)
}

func TestRollbackOrder(t *testing.T) {
	applied := []Migration{{Version: "001_a"}, {Version: "003_c"}, {Version: "002_b"}}

	assert.Equal(t, []string{"003_c"}, RollbackOrder(applied, 1))
	assert.Equal(t, []string{"003_c", "002_b", "001_a"}, RollbackOrder(applied, 10))
	assert.Empty(t, RollbackOrder(applied, 0))
}

func TestChecksum(t *testing.T) {
	a := RegisteredMigration{Version: "001_a", Description: "one"}
	b := RegisteredMigration{Version: "001_a", Description: "two"}

	assert.Len(t, Checksum(a), 64)
	assert.Equal(t, Checksum(a), Checksum(a))
	assert.NotEqual(t, Checksum(a), Checksum(b))
}
