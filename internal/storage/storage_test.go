package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestStore_PutGetDelete(t *testing.T) {
	s, _ := openTemp(t)

	_, ok, err := s.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(KeyToken, "abc"))
	require.NoError(t, s.Put(KeyToken, "def"))
	v, ok, err := s.Get(KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "def", v)

	require.NoError(t, s.Delete(KeyToken, KeyUser))
	_, ok, err = s.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SurvivesReopen(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.PutAll(map[string]string{KeyToken: "t", KeyUser: `{"id":1}`}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(KeyUser)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, v)
}

func TestStore_MigratesLegacyTable(t *testing.T) {
	s, path := openTemp(t)
	_, err := s.db.Exec(`DROP TABLE client_state;`)
	require.NoError(t, err)
	_, err = s.db.Exec(`CREATE TABLE client_state (key TEXT PRIMARY KEY, value TEXT NOT NULL);`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Put(KeyToken, "x"))
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file:memdb?mode=memory", sqliteDSN("file:memdb?mode=memory"))
	dsn := sqliteDSN("state.db")
	assert.True(t, strings.HasPrefix(dsn, "file:"))
	assert.Contains(t, dsn, "mode=rwc")
}
