// Package track provides the Track domain entities.
package track

import "strings"

// ID is an opaque track identifier as carried by the site's track links.
type ID string

// String returns the identifier as a plain string.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Metadata represents the playable description of a track returned by the
// track API. It is only kept until the next track is loaded.
type Metadata struct {
	ID         ID     // Track ID the metadata was resolved for
	Title      string // Track title
	Artist     string // Artist display name
	CoverURL   string // Cover image URL
	MediaURL   string // Playable media URL
	AlbumTitle string // Album title
	AlbumID    string // Album ID
}

// IsPlayable reports whether the metadata carries a media source.
func (m *Metadata) IsPlayable() bool {
	return m != nil && m.MediaURL != ""
}

// Label returns "Artist - Title", falling back to whichever part is present.
func (m *Metadata) Label() string {
	switch {
	case m.Artist != "" && m.Title != "":
		return m.Artist + " - " + m.Title
	case m.Title != "":
		return m.Title
	default:
		return m.Artist
	}
}

// Credit represents one credits category of a track and the people in it.
type Credit struct {
	Category string   // e.g. "Performers", "Written By"
	Artists  []string // Names credited in the category
}

// Album represents an album as listed by the album API.
type Album struct {
	ID     string
	Title  string
	Tracks []ID
}
