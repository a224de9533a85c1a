package runtime

import (
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 16

// RateLimiter is a sliding-window counter keyed by (user, room): each send
// records a timestamp, each check prunes entries older than the window and
// compares what remains against the quota. There is no calendar-aligned
// bucket, so a burst cannot double up across a window boundary.
//
// State is sharded by room id so fan-out heavy rooms don't serialize
// unrelated rooms behind one lock.
type RateLimiter struct {
	quota  int
	window time.Duration
	now    func() time.Time
	shards [shardCount]*limiterShard
}

type limiterShard struct {
	mu      sync.Mutex
	windows map[string][]time.Time // "user|room" -> recent send times
}

func NewRateLimiter(quota int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{quota: quota, window: window, now: time.Now}
	for i := range rl.shards {
		rl.shards[i] = &limiterShard{windows: make(map[string][]time.Time)}
	}
	return rl
}

// WithClock replaces the time source. Tests use it to simulate the window
// sliding without sleeping.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	rl.now = now
	return rl
}

// Allow reports whether the pair may send now and records the attempt when
// it may. A first message from an unknown pair is always allowed and
// initializes the window. A denied send records nothing.
func (rl *RateLimiter) Allow(userID, roomID string) bool {
	shard := rl.shardFor(roomID)
	key := userID + "|" + roomID
	now := rl.now()
	cutoff := now.Add(-rl.window)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	kept := shard.windows[key][:0]
	for _, ts := range shard.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= rl.quota {
		shard.windows[key] = kept
		return false
	}
	shard.windows[key] = append(kept, now)
	return true
}

func (rl *RateLimiter) shardFor(roomID string) *limiterShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(roomID))
	return rl.shards[h.Sum32()%shardCount]
}
