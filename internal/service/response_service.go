package service

import "time"

// LogFilter supports history filtering by time range, room, and type.
type LogFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	RoomID string    // "" means all rooms
	Type   string     // "", "POWER_ON", "POWER_OFF", "FAN_SPEED_CHANGE", "TARGET_CHANGE", "PREEMPTED", "PROMOTED", "CHECKOUT", "ERROR"
}
