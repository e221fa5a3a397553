// Package playback provides the queue-driven playback state machine.
package playback

// RepeatMode represents what happens when a track reaches its natural end.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // Stop after the last track
	RepeatAll                   // Wrap around to the first track
	RepeatOne                   // Restart the current track
	repeatModeCount
)

// Next returns the mode that follows m in the toggle cycle.
func (m RepeatMode) Next() RepeatMode {
	return (m + 1) % repeatModeCount
}

// String returns the string representation of the mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}
