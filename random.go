// random.go: the default Random implementation used for probabilistic
// cleanup scheduling
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package chronos

import (
	"math/rand"
	"sync"
	"time"
)

// defaultRandom wraps a mutex-guarded math/rand source. The maintenance
// cycle calls Intn once per operation, so contention is not a concern.
type defaultRandom struct {
	mu  sync.Mutex
	src *rand.Rand
}

func newDefaultRandom() *defaultRandom {
	return &defaultRandom{src: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *defaultRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}
