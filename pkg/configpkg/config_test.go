package configpkg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	content := "DB_DRIVER=memory\nLOCK_WAIT_TIMEOUT=750ms\nKAFKA_BROKERS=a:9092, b:9092\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	t.Setenv("CONFLICT_RETRIES", "5")

	c, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, "memory", c.DBDriver)
	require.Equal(t, 750*time.Millisecond, c.LockWaitTimeout)
	require.Equal(t, 5, c.ConflictRetries)
	require.Equal(t, int32(100), c.HistoryPageSize)
	require.Equal(t, "none", c.EventsBroker)
	require.Equal(t, []string{"a:9092", "b:9092"}, c.Brokers())
}

func TestBanks(t *testing.T) {
	c := Config{MemoryBanks: "fb=First Bank, sb = Second Bank,broken,=Nameless"}

	require.Equal(t, map[string]string{"First Bank": "fb", "Second Bank": "sb"}, c.Banks())
	require.Empty(t, Config{}.Banks())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}
