package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func newTestStore(t *testing.T) (*Store[record], string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.json")
	store, err := New[record](path)
	require.NoError(t, err)
	return store, path
}

func TestNewInitializesEmptyFile(t *testing.T) {
	store, path := newTestStore(t)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	items, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestWriteReadRoundtrip(t *testing.T) {
	store, _ := newTestStore(t)

	want := []record{{Name: "a", N: 1}, {Name: "b", N: 2}}
	require.NoError(t, store.WriteAll(want))

	got, err := store.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// Битый файл восстанавливается как пустая коллекция, а не ошибка.
func TestReadAllCorruptFile(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{broken json"), 0o644))

	items, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestReadAllNonListFile(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"a"}`), 0o644))

	items, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestReadAllMissingFileAfterInit(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.Remove(path))

	items, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, items)
}

// Конкурентные циклы read-modify-write не теряют обновления.
func TestModifySerialized(t *testing.T) {
	store, _ := newTestStore(t)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := store.Modify(func(items []record) ([]record, bool, error) {
				return append(items, record{Name: "w", N: n}), true, nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	items, err := store.ReadAll()
	require.NoError(t, err)
	assert.Len(t, items, workers)
}

func TestModifyNoChangeSkipsWrite(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.WriteAll([]record{{Name: "a", N: 1}}))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = store.Modify(func(items []record) ([]record, bool, error) {
		return nil, false, nil
	})
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
