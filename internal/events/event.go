// Package events moves activity entries through RabbitMQ.  The API
// publishes best-effort after each recorded action; a background
// consumer appends a human-readable feed to logs/activity.log.
package events

// ActivityQueue is the durable queue carrying activity events.
const ActivityQueue = "activity.recorded"

// ActivityEvent is the wire form of a recorded action.
type ActivityEvent struct {
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   uint64         `json:"entityId"`
	UserID     uint64         `json:"userId"`
	ProjectID  *uint64        `json:"projectId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt string         `json:"occurredAt"`
}
