package afk

import (
	"hash/fnv"
	"sync"
)

// keyedMutex serializes tracker operations per user so the total
// read-modify-write in CheckReturn is exactly-once. Sharded so unrelated
// users rarely contend.
type keyedMutex struct {
	shards []sync.Mutex
}

func newKeyedMutex(shards int) *keyedMutex {
	if shards <= 0 {
		shards = 64
	}
	return &keyedMutex{shards: make([]sync.Mutex, shards)}
}

func (k *keyedMutex) lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	m := &k.shards[h.Sum32()%uint32(len(k.shards))]
	m.Lock()
	return m.Unlock
}
