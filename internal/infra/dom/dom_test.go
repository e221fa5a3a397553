package dom

import (
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanmade/nowplaying/internal/app/playback"
	"github.com/fanmade/nowplaying/internal/apperr"
	"github.com/fanmade/nowplaying/internal/domain/track"
)

const playerPage = `<!DOCTYPE html>
<html><body>
<ul>
  <li><a href="#" class="track-link" data-track-id="A">One</a></li>
  <li><a href="#" class="track-link" data-track-id="B">Two</a></li>
  <li><a href="#" class="track-link other" data-track-id="C">Three</a></li>
</ul>
<div id="music-player" style="display: flex">
  <img id="track-cover" class="hidden rounded" src="">
  <span id="track-title">-</span>
  <span id="track-artist">-</span>
  <audio id="audio-player"></audio>
  <button id="prev-button"><svgload name="skipPrevious" class="w-6"></svgload></button>
  <button id="loop-button">
    <svgload name="repeat" class="w-6 opacity-50"></svgload>
    <svgload name="repeat" class="w-6 hidden"></svgload>
    <svgload name="repeatOne" class="w-6 hidden"></svgload>
  </button>
  <button id="next-button"><svgload name="skipNext" class="w-6"></svgload></button>
  <button id="close-player"><svgload name="close"></svgload></button>
</div>
</body></html>`

const svgMarkup = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" class="icon"><path d="M7 7h10v3l4-4-4-4v3H5v6h2V7z"/></svg>`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := ParseString(s)
	require.NoError(t, err)
	return doc
}

func TestDocument_ByID(t *testing.T) {
	doc := mustParse(t, playerPage)

	title := doc.ByID("track-title")
	require.NotNil(t, title)
	assert.Equal(t, "span", title.Tag())
	assert.Equal(t, "-", title.Text())

	assert.Nil(t, doc.ByID("does-not-exist"))
}

func TestElement_TagWhileReplacing(t *testing.T) {
	doc := mustParse(t, playerPage)
	loop := doc.ByID("loop-button")
	placeholders := doc.Placeholders(loop)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, ph := range placeholders {
			_, err := doc.ReplaceWithMarkup(ph, svgMarkup)
			assert.NoError(t, err)
		}
	}()
	for i := 0; i < 100; i++ {
		for _, ph := range placeholders {
			assert.NotEmpty(t, ph.Tag())
		}
	}
	wg.Wait()

	for _, svg := range doc.QueryTag(loop, "svg") {
		assert.Equal(t, "svg", svg.Tag())
	}
}

func TestDocument_QueryClass(t *testing.T) {
	doc := mustParse(t, playerPage)

	links := doc.QueryClass(nil, "track-link")
	require.Len(t, links, 3)
	assert.Equal(t, "A", links[0].Data("track-id"))
	assert.Equal(t, "C", links[2].Data("track-id"))
}

func TestDocument_Placeholders(t *testing.T) {
	doc := mustParse(t, playerPage)

	assert.Len(t, doc.Placeholders(nil), 6)
	loop := doc.ByID("loop-button")
	assert.Equal(t, 3, doc.CountPlaceholders(loop))
}

func TestDocument_ReplaceWithMarkup(t *testing.T) {
	doc := mustParse(t, playerPage)
	loop := doc.ByID("loop-button")
	ph := doc.Placeholders(loop)[0]

	svg, err := doc.ReplaceWithMarkup(ph, svgMarkup)
	require.NoError(t, err)

	assert.Equal(t, "svg", svg.Tag())
	assert.Equal(t, []string{"icon", "w-6", "opacity-50"}, svg.Classes(), "placeholder classes are carried over")
	assert.Equal(t, 2, doc.CountPlaceholders(loop))
	assert.Len(t, doc.QueryTag(loop, "svg"), 1)
	assert.Contains(t, doc.String(), `viewBox="0 0 24 24"`)
}

func TestDocument_ReplaceWithMarkup_Invalid(t *testing.T) {
	doc := mustParse(t, playerPage)
	ph := doc.Placeholders(nil)[0]

	_, err := doc.ReplaceWithMarkup(ph, "<p>not an icon</p>")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrParse))
	assert.Len(t, doc.Placeholders(nil), 6, "placeholder stays on failure")

	_, err = doc.ReplaceWithMarkup(nil, svgMarkup)
	assert.Error(t, err)
}

func TestElement_Classes(t *testing.T) {
	doc := mustParse(t, `<div id="x" class="a b"></div>`)
	el := doc.ByID("x")

	el.AddClass("c")
	el.AddClass("a")
	assert.Equal(t, []string{"a", "b", "c"}, el.Classes())

	el.RemoveClass("b")
	assert.Equal(t, []string{"a", "c"}, el.Classes())

	el.ToggleClass("hidden", true)
	assert.True(t, el.HasClass("hidden"))
	el.ToggleClass("hidden", false)
	assert.False(t, el.HasClass("hidden"))
}

func TestElement_SetStyle(t *testing.T) {
	doc := mustParse(t, `<div id="x" style="display: flex; color: red"></div>`)
	el := doc.ByID("x")

	el.SetStyle("display", "none")

	assert.Equal(t, "none", el.Style("display"))
	assert.Equal(t, "red", el.Style("color"))
	assert.Equal(t, "", el.Style("margin"))
}

func TestElement_SetText(t *testing.T) {
	doc := mustParse(t, `<p id="x">old <b>bold</b></p>`)
	el := doc.ByID("x")

	el.SetText("new & <escaped>")

	assert.Equal(t, "new & <escaped>", el.Text())
	assert.Contains(t, doc.String(), "new &amp; &lt;escaped&gt;")
}

func TestPage_TrackIDs(t *testing.T) {
	page := NewPage(mustParse(t, playerPage))
	assert.Equal(t, []track.ID{"A", "B", "C"}, page.TrackIDs())
}

func TestPage_ShowTrack(t *testing.T) {
	doc := mustParse(t, playerPage)
	page := NewPage(doc)

	page.ShowTrack(track.Metadata{
		Title:    "Night Drive",
		Artist:   "Lumen",
		CoverURL: "/static/covers/lumen.jpg",
		MediaURL: "/tracks/lumen.mp3",
	})

	assert.Equal(t, "Night Drive", doc.ByID(IDTrackTitle).Text())
	assert.Equal(t, "Lumen", doc.ByID(IDTrackArtist).Text())
	cover := doc.ByID(IDTrackCover)
	assert.Equal(t, "/static/covers/lumen.jpg", cover.Attr("src"))
	assert.False(t, cover.HasClass(ClassHidden))
	assert.True(t, cover.HasClass("rounded"))
	assert.Equal(t, "/tracks/lumen.mp3", doc.ByID(IDAudioPlayer).Attr("src"))
}

func TestPage_Hide(t *testing.T) {
	doc := mustParse(t, playerPage)
	page := NewPage(doc)

	page.Hide()
	page.Hide()

	assert.Equal(t, "none", doc.ByID(IDMusicPlayer).Style("display"))
}

func TestPage_MissingElements(t *testing.T) {
	page := NewPage(mustParse(t, `<html><body></body></html>`))

	assert.NotPanics(t, func() {
		page.ShowTrack(track.Metadata{Title: "x"})
		page.Hide()
	})
	assert.Nil(t, page.LoopButton())
	_, err := page.LoopIcons()
	assert.Error(t, err)
}

func TestLoopIcons_Show(t *testing.T) {
	doc := mustParse(t, playerPage)
	page := NewPage(doc)

	_, err := page.LoopIcons()
	require.Error(t, err, "placeholders are not icons yet")

	for _, ph := range doc.Placeholders(page.LoopButton()) {
		_, err := doc.ReplaceWithMarkup(ph, svgMarkup)
		require.NoError(t, err)
	}
	icons, err := page.LoopIcons()
	require.NoError(t, err)

	mode := playback.RepeatOff
	icons.Show(mode)
	assert.Equal(t, []int{0}, icons.Visible())
	for i := 1; i <= 3; i++ {
		mode = mode.Next()
		icons.Show(mode)
		assert.Equal(t, []int{int(mode)}, icons.Visible(), "exactly one icon after %d toggles", i)
	}
	assert.Equal(t, playback.RepeatOff, mode)
	assert.True(t, strings.Contains(doc.String(), "opacity-50"))
}
