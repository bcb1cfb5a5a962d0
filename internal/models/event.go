package models

import "time"

// TriggerEvent is emitted when a cycle's sample breaches a configured
// threshold. Events are transient: they are reported to the agent and
// printed or handed to a callback, never persisted. EventID lets the agent
// de-duplicate re-fires of the same condition across cycles.
type TriggerEvent struct {
	EventID       string    `json:"event_id"`
	Data          Sample    `json:"data"`
	DateTriggered time.Time `json:"date_triggered"`
}
