package runtime

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Quota_Then_Denied(t *testing.T) {
	req := require.New(t)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(10, time.Minute).WithClock(func() time.Time { return clock })

	// Given 10 sends inside the window
	for i := 0; i < 10; i++ {
		clock = clock.Add(500 * time.Millisecond)
		req.True(limiter.Allow("user-1", "42"), "send %d should pass", i+1)
	}

	// When the 11th send arrives within the same window
	clock = clock.Add(time.Second)

	// Then it is denied
	req.False(limiter.Allow("user-1", "42"))
}

func TestRateLimiter_Window_Slides(t *testing.T) {
	req := require.New(t)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(10, time.Minute).WithClock(func() time.Time { return clock })

	// Given an exhausted quota
	for i := 0; i < 10; i++ {
		req.True(limiter.Allow("user-1", "42"))
	}
	req.False(limiter.Allow("user-1", "42"))

	// When 60 simulated seconds elapse
	clock = clock.Add(61 * time.Second)

	// Then a send succeeds again
	req.True(limiter.Allow("user-1", "42"))
}

func TestRateLimiter_Denied_Send_Records_Nothing(t *testing.T) {
	req := require.New(t)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(2, time.Minute).WithClock(func() time.Time { return clock })

	// Given an exhausted quota and denied attempts
	req.True(limiter.Allow("user-1", "42"))
	clock = clock.Add(time.Second)
	req.True(limiter.Allow("user-1", "42"))
	for i := 0; i < 5; i++ {
		clock = clock.Add(time.Second)
		req.False(limiter.Allow("user-1", "42"))
	}

	// When the first recorded send ages out
	clock = clock.Add(55 * time.Second)

	// Then the pair may send again: rejections never extended the window
	req.True(limiter.Allow("user-1", "42"))
}

func TestRateLimiter_Keys_Are_Independent(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(1, time.Minute)

	// Given user-1 exhausted its quota in room 42
	req.True(limiter.Allow("user-1", "42"))
	req.False(limiter.Allow("user-1", "42"))

	// Then other users and other rooms are unaffected
	req.True(limiter.Allow("user-2", "42"))
	req.True(limiter.Allow("user-1", "7"))
}

func TestRateLimiter_Unknown_Key_Initializes_Window(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(10, time.Minute)

	// A first message from a fresh (user, room) pair is always allowed
	for i := 0; i < 50; i++ {
		req.True(limiter.Allow(fmt.Sprintf("user-%d", i), "42"))
	}
}
