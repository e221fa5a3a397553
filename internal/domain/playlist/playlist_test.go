package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fanmade/nowplaying/internal/domain/track"
)

func TestQueue_TrackIDs(t *testing.T) {
	tests := []struct {
		name     string
		ids      []track.ID
		expected []track.ID
	}{
		{
			name:     "empty queue",
			ids:      []track.ID{},
			expected: []track.ID{},
		},
		{
			name:     "single track",
			ids:      []track.ID{"track-1"},
			expected: []track.ID{"track-1"},
		},
		{
			name:     "keeps document order and duplicates",
			ids:      []track.ID{"track-2", "track-1", "track-2"},
			expected: []track.ID{"track-2", "track-1", "track-2"},
		},
		{
			name:     "skips empty ids",
			ids:      []track.ID{"", "track-1", " "},
			expected: []track.ID{"track-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue(tt.ids)
			assert.Equal(t, tt.expected, q.TrackIDs())
			assert.Equal(t, len(tt.expected), q.Len())
		})
	}
}

func TestQueue_At(t *testing.T) {
	q := NewQueue([]track.ID{"a", "b", "c"})

	id, ok := q.At(0)
	assert.True(t, ok)
	assert.Equal(t, track.ID("a"), id)

	id, ok = q.At(2)
	assert.True(t, ok)
	assert.Equal(t, track.ID("c"), id)

	_, ok = q.At(3)
	assert.False(t, ok)

	_, ok = q.At(-1)
	assert.False(t, ok)

	assert.Equal(t, 2, q.LastIndex())
}

func TestQueue_IndexOf(t *testing.T) {
	q := NewQueue([]track.ID{"a", "b", "a"})

	assert.Equal(t, 0, q.IndexOf("a"))
	assert.Equal(t, 1, q.IndexOf("b"))
	assert.Equal(t, -1, q.IndexOf("z"))
	assert.Equal(t, -1, NewQueue(nil).IndexOf("a"))
}

func TestQueue_TrackIDsIsCopy(t *testing.T) {
	q := NewQueue([]track.ID{"a", "b"})
	ids := q.TrackIDs()
	ids[0] = "mutated"

	first, _ := q.At(0)
	assert.Equal(t, track.ID("a"), first)
	assert.True(t, NewQueue(nil).IsEmpty())
	assert.Equal(t, -1, NewQueue(nil).LastIndex())
}
