package announce

import "math/rand"

// newID assigns a record id unique within one device group. A random
// 63-bit seed is probed linearly against the live group until free.
// Ids carry no meaning across restarts beyond what the store records.
func newID(group map[int64]*Record) int64 {
	id := rand.Int63()
	for {
		if _, taken := group[id]; !taken {
			return id
		}
		id++
	}
}
