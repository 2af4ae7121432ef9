// game/rand.go
package game

import (
	"math/rand"
	"sync"
	"time"
)

// Rand 洗牌与随机裁决的来源。注入固定种子即可复现角色分配
// 和所有平票裁决。
type Rand interface {
	Shuffle(n int, swap func(i, j int))
	Intn(n int) int
}

type lockedRand struct {
	mutex sync.Mutex
	rng   *rand.Rand
}

// NewRand returns a seeded source. The same seed reproduces the same
// assignment and tie-break sequence.
func NewRand(seed int64) Rand {
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeRand seeds from the wall clock, for production use.
func NewTimeRand() Rand {
	return NewRand(time.Now().UnixNano())
}

func (r *lockedRand) Shuffle(n int, swap func(i, j int)) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.rng.Shuffle(n, swap)
}

func (r *lockedRand) Intn(n int) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.rng.Intn(n)
}
