// Package playlist provides the playback queue domain entity.
package playlist

import "github.com/fanmade/nowplaying/internal/domain/track"

// Queue is the ordered, fixed sequence of tracks available for sequential
// playback. Insertion order is play order. A Queue never changes length.
type Queue struct {
	ids []track.ID
}

// NewQueue builds a queue from ids in the given order. Empty ids are skipped.
func NewQueue(ids []track.ID) Queue {
	q := Queue{ids: make([]track.ID, 0, len(ids))}
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		q.ids = append(q.ids, id)
	}
	return q
}

// Len returns the number of tracks in the queue.
func (q Queue) Len() int {
	return len(q.ids)
}

// IsEmpty returns true if the queue holds no tracks.
func (q Queue) IsEmpty() bool {
	return len(q.ids) == 0
}

// At returns the track at index i.
func (q Queue) At(i int) (track.ID, bool) {
	if i < 0 || i >= len(q.ids) {
		return "", false
	}
	return q.ids[i], true
}

// LastIndex returns the index of the last track, or -1 for an empty queue.
func (q Queue) LastIndex() int {
	return len(q.ids) - 1
}

// IndexOf returns the first position of id in the queue, or -1.
func (q Queue) IndexOf(id track.ID) int {
	for i, qid := range q.ids {
		if qid == id {
			return i
		}
	}
	return -1
}

// TrackIDs returns a copy of all track IDs in play order.
func (q Queue) TrackIDs() []track.ID {
	ids := make([]track.ID, len(q.ids))
	copy(ids, q.ids)
	return ids
}
