// Package realtime implements the change-notification hub: an in-process
// subscriber registry with named channels, plus an optional Redis Pub/Sub
// bridge so events reach subscribers on other instances.
package realtime

import (
	"strings"
	"time"
)

// Subscription channel names. Per-student channels are derived with StudentChannel.
const (
	ChannelStudentList = "student-list"
	ChannelAttendance  = "attendance-updates"
	ChannelClinic      = "clinic-updates"
	ChannelBehavior    = "behavior-updates"
	ChannelDashboard   = "dashboard-updates"

	studentChannelPrefix = "student:"
)

// StudentChannel names the per-student channel.
func StudentChannel(studentID string) string {
	return studentChannelPrefix + studentID
}

// ValidChannel reports whether clients may subscribe to the named channel.
func ValidChannel(name string) bool {
	switch name {
	case ChannelStudentList, ChannelAttendance, ChannelClinic, ChannelBehavior, ChannelDashboard:
		return true
	}
	return strings.HasPrefix(name, studentChannelPrefix) && len(name) > len(studentChannelPrefix)
}

// Event is a single change notification addressed to one channel.
type Event struct {
	Channel string      `json:"channel"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	At      time.Time   `json:"at"`
}
