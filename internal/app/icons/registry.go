// Package icons inflates icon placeholders with SVG markup fetched once per
// session.
package icons

import "sort"

// defaultEntries maps the site's icon names to their asset files.
var defaultEntries = map[string]string{
	"accountCircle": "account_circle_24dp.svg",
	"album":         "album_24dp.svg",
	"explicit":      "explicit_24dp.svg",
	"playArrow":     "play_arrow_24dp.svg",
	"login":         "login_24dp.svg",
	"search":        "search_24dp.svg",
	"article":       "article_24dp.svg",
	"close":         "close_24dp.svg",
	"personAdd":     "person_add_24dp.svg",
	"personRemove":  "person_remove_24dp.svg",
	"skipPrevious":  "skip_previous_24dp.svg",
	"skipNext":      "skip_next_24dp.svg",
	"repeat":        "repeat_24dp.svg",
	"repeatOne":     "repeat_one_24dp.svg",
}

// Registry is an immutable table from icon name to asset file.
type Registry struct {
	entries map[string]string
}

// NewRegistry builds a registry from the default site icons plus extra.
// Extra entries cannot replace a default one.
func NewRegistry(extra map[string]string) Registry {
	entries := make(map[string]string, len(defaultEntries)+len(extra))
	for name, file := range extra {
		entries[name] = file
	}
	for name, file := range defaultEntries {
		entries[name] = file
	}
	return Registry{entries: entries}
}

// Lookup returns the asset file for name.
func (r Registry) Lookup(name string) (string, bool) {
	file, ok := r.entries[name]
	return file, ok
}

// Len returns the number of registered icons.
func (r Registry) Len() int {
	return len(r.entries)
}

// Names returns all icon names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
