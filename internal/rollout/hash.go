package rollout

import (
	"github.com/cespare/xxhash/v2"
)

// BucketUser returns a deterministic bucket (0-99) for the given identity and feature.
// The same id + featureKey + salt combination always lands in the same bucket,
// across calls and across process restarts.
func BucketUser(id, featureKey, salt string) int {
	if id == "" {
		return -1 // no identity to hash
	}
	key := id + ":" + featureKey + ":" + salt
	return int(xxhash.Sum64String(key) % 100)
}
