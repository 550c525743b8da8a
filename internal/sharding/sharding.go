package sharding

import (
	"fmt"
	"hash/crc32"
)

// ShardCount is the fixed number of subject partitions.
const ShardCount = 1024

// SubjectPrefix is the root of every activity subject.
const SubjectPrefix = "app.activity"

// GetShardID calculates the deterministic shard ID for an owner.
func GetShardID(ownerID string) int {
	checksum := crc32.ChecksumIEEE([]byte(ownerID))
	return int(checksum % ShardCount)
}

// GetSubject returns the NATS subject for an activity event.
// Format: app.activity.{shard_id}.{entity}.{owner_id}
func GetSubject(entity, ownerID string) string {
	return fmt.Sprintf("%s.%d.%s.%s", SubjectPrefix, GetShardID(ownerID), entity, ownerID)
}
