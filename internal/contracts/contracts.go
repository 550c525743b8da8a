package contracts

import "time"

const (
	EntityTask    = "task"
	EntityJournal = "journal"
	EntityUser    = "user"
)

const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionDeleted     = "deleted"
	ActionCarriedOver = "carried_over"
	ActionReordered   = "reordered"
	ActionSignedUp    = "signed_up"
)

// ActivityEvent is published by the API after a successful mutation and
// stored by the activity sink.
type ActivityEvent struct {
	EventID    string    `json:"eventId"`
	OwnerID    string    `json:"ownerId"`
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entityId"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurredAt"`
	ShardID    int       `json:"shardId"`
}
