package dom

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/fanmade/nowplaying/internal/app/playback"
	"github.com/fanmade/nowplaying/internal/domain/track"
)

// Element IDs and classes of the player page.
const (
	IDTrackTitle  = "track-title"
	IDTrackArtist = "track-artist"
	IDTrackCover  = "track-cover"
	IDAudioPlayer = "audio-player"
	IDLoopButton  = "loop-button"
	IDMusicPlayer = "music-player"

	ClassTrackLink = "track-link"
	ClassHidden    = "hidden"
)

// Page holds the handles of the player controls. Handles for elements that
// are absent from the document are nil; operations on them are skipped.
type Page struct {
	doc *Document

	title  *Element
	artist *Element
	cover  *Element
	audio  *Element
	loop   *Element
	player *Element
}

// NewPage looks up the player controls in doc.
func NewPage(doc *Document) *Page {
	return &Page{
		doc:    doc,
		title:  doc.ByID(IDTrackTitle),
		artist: doc.ByID(IDTrackArtist),
		cover:  doc.ByID(IDTrackCover),
		audio:  doc.ByID(IDAudioPlayer),
		loop:   doc.ByID(IDLoopButton),
		player: doc.ByID(IDMusicPlayer),
	}
}

// LoopButton returns the loop button handle, or nil.
func (p *Page) LoopButton() *Element {
	return p.loop
}

// TrackIDs returns the track IDs of all track links in document order.
func (p *Page) TrackIDs() []track.ID {
	links := p.doc.QueryClass(nil, ClassTrackLink)
	ids := make([]track.ID, 0, len(links))
	for _, link := range links {
		ids = append(ids, track.ID(link.Data("track-id")))
	}
	return ids
}

// ShowTrack renders the "now playing" fields and points the audio element
// at the media URL.
func (p *Page) ShowTrack(m track.Metadata) {
	if p.title != nil {
		p.title.SetText(m.Title)
	}
	if p.artist != nil {
		p.artist.SetText(m.Artist)
	}
	if p.cover != nil {
		p.cover.SetAttr("src", m.CoverURL)
		p.cover.RemoveClass(ClassHidden)
	} else {
		zlog.Debug().Msgf("dom: no #%s element, cover not shown", IDTrackCover)
	}
	if p.audio != nil {
		p.audio.SetAttr("src", m.MediaURL)
	}
}

// Hide hides the player container.
func (p *Page) Hide() {
	if p.player == nil {
		zlog.Debug().Msgf("dom: no #%s element to hide", IDMusicPlayer)
		return
	}
	p.player.SetStyle("display", "none")
}

// LoopIcons collects the three materialized icons inside the loop button.
func (p *Page) LoopIcons() (*LoopIcons, error) {
	if p.loop == nil {
		return nil, errors.Newf("no #%s element", IDLoopButton)
	}
	icons := p.doc.QueryTag(p.loop, "svg")
	if len(icons) != 3 {
		return nil, errors.Newf("expected 3 icons in #%s, found %d", IDLoopButton, len(icons))
	}
	return &LoopIcons{icons: icons}, nil
}

// LoopIcons shows one icon per repeat mode, in off/all/one order.
type LoopIcons struct {
	icons []*Element
}

// Show makes the icon for mode visible and hides the others.
func (l *LoopIcons) Show(mode playback.RepeatMode) {
	for i, icon := range l.icons {
		icon.ToggleClass(ClassHidden, i != int(mode))
	}
}

// Visible returns the indexes of the icons without the hidden class.
func (l *LoopIcons) Visible() []int {
	var visible []int
	for i, icon := range l.icons {
		if !icon.HasClass(ClassHidden) {
			visible = append(visible, i)
		}
	}
	return visible
}
