package promocode

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VPN-Manager-bot/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.New[Promocode](filepath.Join(t.TempDir(), "promocodes.json"))
	require.NoError(t, err)
	return NewService(store)
}

func TestAddAndGet(t *testing.T) {
	svc := newTestService(t)

	require.True(t, svc.Add("WELCOME30", 30))

	promo := svc.Get("WELCOME30")
	require.NotNil(t, promo)
	assert.Equal(t, "WELCOME30", promo.Code)
	assert.Equal(t, 30, promo.DurationDays)
	assert.True(t, promo.Active)
}

func TestGetUnknownCode(t *testing.T) {
	svc := newTestService(t)
	assert.Nil(t, svc.Get("NOPE"))
}

// Неактивный код неотличим от несуществующего.
func TestGetInactiveCode(t *testing.T) {
	svc := newTestService(t)
	require.True(t, svc.Add("USED", 7))
	require.True(t, svc.Use("USED"))

	assert.Nil(t, svc.Get("USED"))
}

func TestAddDuplicate(t *testing.T) {
	svc := newTestService(t)

	assert.True(t, svc.Add("DUP", 30))
	assert.False(t, svc.Add("DUP", 60))
}

// Код остаётся занятым даже после деактивации: повторное использование
// кодов не допускается.
func TestAddDuplicateAfterUse(t *testing.T) {
	svc := newTestService(t)

	require.True(t, svc.Add("ONCE", 30))
	require.True(t, svc.Use("ONCE"))
	assert.False(t, svc.Add("ONCE", 30))
}

func TestUseSingleUse(t *testing.T) {
	svc := newTestService(t)
	require.True(t, svc.Add("SINGLE", 14))

	assert.True(t, svc.Use("SINGLE"))
	assert.False(t, svc.Use("SINGLE"))
}

func TestUseUnknownCode(t *testing.T) {
	svc := newTestService(t)
	assert.False(t, svc.Use("GHOST"))
}

// Два конкурентных применения одного кода: ровно один успех.
func TestUseConcurrent(t *testing.T) {
	svc := newTestService(t)
	require.True(t, svc.Add("RACE", 30))

	const attempts = 10
	results := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Use("RACE")
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for ok := range results {
		if ok {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Nil(t, svc.Get("RACE"))
}

func TestRemove(t *testing.T) {
	svc := newTestService(t)
	require.True(t, svc.Add("TEMP", 30))

	assert.True(t, svc.Remove("TEMP"))
	assert.Nil(t, svc.Get("TEMP"))
	assert.False(t, svc.Remove("TEMP"))
}

func TestDeactivate(t *testing.T) {
	svc := newTestService(t)
	require.True(t, svc.Add("OFF", 30))

	assert.True(t, svc.Deactivate("OFF"))
	assert.Nil(t, svc.Get("OFF"))
	assert.False(t, svc.Deactivate("OFF"))
}

func TestListIncludesInactive(t *testing.T) {
	svc := newTestService(t)
	require.True(t, svc.Add("A", 10))
	require.True(t, svc.Add("B", 20))
	require.True(t, svc.Use("A"))

	promos := svc.List()
	require.Len(t, promos, 2)
	assert.Equal(t, "A", promos[0].Code)
	assert.False(t, promos[0].Active)
	assert.Equal(t, "B", promos[1].Code)
	assert.True(t, promos[1].Active)
}
