package playback

import "github.com/fanmade/nowplaying/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted   EventType = iota // New track loaded and playing
	EventTrackRestarted                  // Current track restarted from 0 (repeat one)
	EventPlayFailed                      // Metadata or media could not be loaded
	EventPlayDiscarded                   // A superseded response arrived and was dropped
	EventRepeatChanged                   // Repeat mode toggled
	EventQueueFinished                   // Natural end of the last track with repeat off
	EventClosed                          // Player surface closed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackRestarted:
		return "track_restarted"
	case EventPlayFailed:
		return "play_failed"
	case EventPlayDiscarded:
		return "play_discarded"
	case EventRepeatChanged:
		return "repeat_changed"
	case EventQueueFinished:
		return "queue_finished"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type     EventType
	TrackID  track.ID        // Track the event refers to (empty for some events)
	Metadata *track.Metadata // Loaded metadata (EventTrackStarted only)
	Cursor   int             // Cursor at the time of the event
	Mode     RepeatMode      // Repeat mode at the time of the event
	Err      error           // Failure cause (EventPlayFailed only)
}
