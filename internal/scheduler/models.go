package scheduler

import (
	"fmt"
	"strconv"
)

// TaskType identifies the work a task carries
type TaskType string

const (
	// TaskRegularSync triggers the recurring full cycle: war refresh
	// plus one manager sync per registered organization
	TaskRegularSync TaskType = "regular_sync"

	// TaskManagerSync reconciles one organization's contact store and
	// fans out character syncs for stale subscriptions
	TaskManagerSync TaskType = "manager_sync"

	// TaskCharacterSync replaces one character's remote contacts
	TaskCharacterSync TaskType = "character_sync"

	// TaskWarsRefresh prunes the war directory and dispatches one
	// war_update per unfinished war
	TaskWarsRefresh TaskType = "wars_refresh"

	// TaskWarUpdate fetches and stores one war
	TaskWarUpdate TaskType = "war_update"

	// TaskEntityBackfill resolves names for entities created from bare ids
	TaskEntityBackfill TaskType = "entity_backfill"
)

// Task is one unit of asynchronous work
type Task struct {
	ID             string
	Type           TaskType
	OrganizationID int64
	CharacterID    int64
	WarID          int64
	Force          bool
	NotifyUserID   string
	Attempt        int
}

// LockKey returns the Redis key that serializes concurrent executions
// of the same logical task
func (t *Task) LockKey() string {
	switch t.Type {
	case TaskManagerSync:
		return fmt.Sprintf("standings:lock:%s:%d", t.Type, t.OrganizationID)
	case TaskCharacterSync:
		return fmt.Sprintf("standings:lock:%s:%d", t.Type, t.CharacterID)
	case TaskWarUpdate:
		return fmt.Sprintf("standings:lock:%s:%d", t.Type, t.WarID)
	default:
		return "standings:lock:" + string(t.Type)
	}
}

// Describe returns a compact identifier for logging
func (t *Task) Describe() string {
	switch t.Type {
	case TaskManagerSync:
		return string(t.Type) + ":" + strconv.FormatInt(t.OrganizationID, 10)
	case TaskCharacterSync:
		return string(t.Type) + ":" + strconv.FormatInt(t.CharacterID, 10)
	case TaskWarUpdate:
		return string(t.Type) + ":" + strconv.FormatInt(t.WarID, 10)
	default:
		return string(t.Type)
	}
}
