package outbox

import (
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const defaultVirtualNodes = 64

// Ring assigns shard buckets to publisher workers by consistent hashing.
// Every instance builds the same ring, so a bucket has exactly one owner.
type Ring struct {
	hashes []uint64
	owners map[uint64]int
}

// NewRing places nodes 0..nodes-1 on the ring with the given number of virtual nodes each.
func NewRing(nodes, virtualNodes int) *Ring {
	if virtualNodes <= 0 {
		virtualNodes = defaultVirtualNodes
	}
	r := &Ring{owners: make(map[uint64]int, nodes*virtualNodes)}
	for n := 0; n < nodes; n++ {
		for v := 0; v < virtualNodes; v++ {
			h := xxhash.Sum64String("node-" + strconv.Itoa(n) + "#" + strconv.Itoa(v))
			if _, taken := r.owners[h]; taken {
				continue
			}
			r.owners[h] = n
			r.hashes = append(r.hashes, h)
		}
	}
	sort.Slice(r.hashes, func(i, j int) bool { return r.hashes[i] < r.hashes[j] })
	return r
}

// Owner returns the node responsible for a shard bucket.
func (r *Ring) Owner(shard int) int {
	if len(r.hashes) == 0 {
		return 0
	}
	h := xxhash.Sum64String("shard-" + strconv.Itoa(shard))
	i := sort.Search(len(r.hashes), func(i int) bool { return r.hashes[i] >= h })
	if i == len(r.hashes) {
		i = 0
	}
	return r.owners[r.hashes[i]]
}

// Shards lists the buckets owned by node.
func (r *Ring) Shards(node int) []int {
	var out []int
	for s := 0; s < ShardCount; s++ {
		if r.Owner(s) == node {
			out = append(out, s)
		}
	}
	return out
}
