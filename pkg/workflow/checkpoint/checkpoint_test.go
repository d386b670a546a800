package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories lets every contract test run against both
// implementations.
var storeFactories = map[string]func(t *testing.T) Store{
	"memory": func(t *testing.T) Store {
		return NewMemoryStore()
	},
	"sqlite": func(t *testing.T) Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "checkpoints.db"))
		require.NoError(t, err)
		return s
	},
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			require.NoError(t, s.Save("run-1", "triage", []byte("snapshot-data")))

			data, err := s.Load("run-1", "triage")
			require.NoError(t, err)
			assert.Equal(t, []byte("snapshot-data"), data)
		})
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			require.NoError(t, s.Save("run-1", "triage", []byte("first")))
			require.NoError(t, s.Save("run-1", "triage", []byte("second")))

			data, err := s.Load("run-1", "triage")
			require.NoError(t, err)
			assert.Equal(t, []byte("second"), data)

			infos, err := s.List("run-1")
			require.NoError(t, err)
			assert.Len(t, infos, 1)
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			_, err := s.Load("no-run", "no-node")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_ListOrderedBySequence(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			require.NoError(t, s.Save("run-1", "triage", []byte("a")))
			require.NoError(t, s.Save("run-1", "detect", []byte("bb")))
			require.NoError(t, s.Save("run-1", "characterize", []byte("ccc")))

			infos, err := s.List("run-1")
			require.NoError(t, err)
			require.Len(t, infos, 3)
			assert.Equal(t, "triage", infos[0].NodeID)
			assert.Equal(t, "detect", infos[1].NodeID)
			assert.Equal(t, "characterize", infos[2].NodeID)
			assert.True(t, infos[0].Sequence < infos[1].Sequence)
			assert.True(t, infos[1].Sequence < infos[2].Sequence)
			assert.Equal(t, int64(3), infos[2].Size)
		})
	}
}

func TestStore_ListEmptyRun(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			infos, err := s.List("no-run")
			require.NoError(t, err)
			assert.Empty(t, infos)
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			require.NoError(t, s.Save("run-1", "triage", []byte("x")))
			require.NoError(t, s.Delete("run-1", "triage"))

			_, err := s.Load("run-1", "triage")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting again is not an error.
			assert.NoError(t, s.Delete("run-1", "triage"))
		})
	}
}

func TestStore_DeleteRun(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			require.NoError(t, s.Save("run-1", "triage", []byte("x")))
			require.NoError(t, s.Save("run-1", "detect", []byte("y")))
			require.NoError(t, s.Save("run-2", "triage", []byte("z")))

			require.NoError(t, s.DeleteRun("run-1"))

			infos, err := s.List("run-1")
			require.NoError(t, err)
			assert.Empty(t, infos)

			// Other runs untouched.
			data, err := s.Load("run-2", "triage")
			require.NoError(t, err)
			assert.Equal(t, []byte("z"), data)
		})
	}
}

func TestStore_RunsAreIsolated(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			require.NoError(t, s.Save("run-1", "triage", []byte("one")))
			require.NoError(t, s.Save("run-2", "triage", []byte("two")))

			data, err := s.Load("run-1", "triage")
			require.NoError(t, err)
			assert.Equal(t, []byte("one"), data)
		})
	}
}

func TestStore_ClosedStore(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			require.NoError(t, s.Save("run-1", "triage", []byte("x")))
			require.NoError(t, s.Close())

			err := s.Save("run-1", "detect", []byte("y"))
			assert.Error(t, err)
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoints.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save("run-1", "triage", []byte("durable")))
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	data, err := s2.Load("run-1", "triage")
	require.NoError(t, err)
	assert.Equal(t, []byte("durable"), data)
}
