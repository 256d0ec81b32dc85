package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStore(t *testing.T) {
	sessions := newSessionStore()

	assert.Equal(t, stateNone, sessions.get(42).state)

	sessions.set(42, session{state: stateAwaitPromo})
	assert.Equal(t, stateAwaitPromo, sessions.get(42).state)
	assert.Equal(t, stateNone, sessions.get(43).state)

	sessions.set(42, session{state: stateAwaitResponse, requestID: "req-1"})
	got := sessions.get(42)
	assert.Equal(t, stateAwaitResponse, got.state)
	assert.Equal(t, "req-1", got.requestID)

	sessions.reset(42)
	assert.Equal(t, stateNone, sessions.get(42).state)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter()

	assert.False(t, limiter.IsLimited(42, btnStatus))
	assert.True(t, limiter.IsLimited(42, btnStatus))

	// другой пользователь и другая команда не задеты
	assert.False(t, limiter.IsLimited(43, btnStatus))
	assert.False(t, limiter.IsLimited(42, btnRedeemPromo))
}
