package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/fanmade/nowplaying/internal/app/notification"
	"github.com/fanmade/nowplaying/internal/app/playback"
	"github.com/fanmade/nowplaying/internal/domain/track"
	"github.com/fanmade/nowplaying/internal/infra/dom"
	"github.com/fanmade/nowplaying/internal/infra/fanmade"
)

// errQuit ends the command loop.
var errQuit = errors.New("quit")

// player wires the console commands to the controller.
type player struct {
	ctrl   *playback.Controller
	client *fanmade.Client
	doc    *dom.Document
	out    *consoleWriter

	// wg tracks navigation commands, which run in the background so a
	// newer command can supersede a pending load.
	wg sync.WaitGroup
}

func newPlayer(ctrl *playback.Controller, client *fanmade.Client, doc *dom.Document, out io.Writer) *player {
	return &player{ctrl: ctrl, client: client, doc: doc, out: newConsoleWriter(out)}
}

const helpText = `commands:
  next | prev         move through the queue
  loop                toggle repeat mode (off, all, one)
  play <id>           play a track by ID (like clicking its link)
  close               pause and hide the player
  status              show cursor, repeat mode and current track
  credits             show credits of the current track
  album <id>          list the tracks of an album
  render <path>       write the current page to a file
  quit                exit`

// exec runs one command line. It returns errQuit when the session should end.
func (p *player) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "next":
		p.background(func() {
			if !p.ctrl.Next(ctx) {
				fmt.Fprintln(p.out, "already at the last track")
			}
		})
	case "prev", "previous":
		p.background(func() {
			if !p.ctrl.Previous(ctx) {
				fmt.Fprintln(p.out, "already at the first track")
			}
		})
	case "loop":
		p.ctrl.ToggleRepeat()
	case "play":
		if len(args) != 1 {
			return errors.New("usage: play <id>")
		}
		id := track.ID(args[0])
		p.background(func() { p.ctrl.Select(ctx, id) })
	case "close":
		p.ctrl.Close()
	case "status":
		p.printStatus()
	case "credits":
		return p.printCredits(ctx)
	case "album":
		if len(args) != 1 {
			return errors.New("usage: album <id>")
		}
		return p.printAlbum(ctx, args[0])
	case "render":
		if len(args) != 1 {
			return errors.New("usage: render <path>")
		}
		return p.render(args[0])
	case "help", "?":
		fmt.Fprintln(p.out, helpText)
	case "quit", "exit":
		return errQuit
	default:
		return errors.Newf("unknown command: %s (try help)", cmd)
	}
	return nil
}

// Wait blocks until background commands are done.
func (p *player) Wait() {
	p.wg.Wait()
}

func (p *player) background(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn()
	}()
}

func (p *player) printStatus() {
	st := p.ctrl.Status()
	current := "-"
	if st.Current != nil {
		current = st.Current.Label()
	}
	fmt.Fprintf(p.out, "track %d/%d  repeat=%s  closed=%t  now=%s\n",
		st.Cursor+1, len(st.Queue), st.Mode, st.Closed, current)
}

func (p *player) printCredits(ctx context.Context) error {
	current, ok := p.ctrl.Current()
	if !ok {
		return errors.New("nothing is playing")
	}
	credits, err := p.client.GetCredits(ctx, current.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "credits for %s\n", current.Label())
	for _, c := range credits {
		fmt.Fprintf(p.out, "  %s: %s\n", c.Category, strings.Join(c.Artists, ", "))
	}
	return nil
}

func (p *player) printAlbum(ctx context.Context, albumID string) error {
	album, err := p.client.GetAlbum(ctx, albumID)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "%s (%d tracks)\n", album.Title, len(album.Tracks))
	for i, id := range album.Tracks {
		fmt.Fprintf(p.out, "  %2d. %s\n", i+1, id)
	}
	return nil
}

func (p *player) render(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	defer f.Close()

	if err := p.doc.Render(f); err != nil {
		return errors.Wrap(err, "failed to render page")
	}
	zlog.Info().Msgf("Page written to %s", path)
	return nil
}

// consoleWriter serializes the writes of the command loop, background
// commands and the notification stream.
type consoleWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsoleWriter(w io.Writer) *consoleWriter {
	if cw, ok := w.(*consoleWriter); ok {
		return cw
	}
	return &consoleWriter{w: w}
}

func (c *consoleWriter) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}

// consoleStream prints playback notifications.
func consoleStream(w *consoleWriter) notification.Stream {
	return notification.StreamFunc(func(n *notification.Notification) error {
		e := n.Event
		switch e.Type {
		case playback.EventTrackStarted:
			label := string(e.TrackID)
			if e.Metadata != nil {
				label = e.Metadata.Label()
			}
			_, err := fmt.Fprintf(w, "#%d now playing: %s\n", n.SequenceNo, label)
			return err
		case playback.EventPlayFailed:
			_, err := fmt.Fprintf(w, "#%d could not play %s: %v\n", n.SequenceNo, e.TrackID, e.Err)
			return err
		case playback.EventRepeatChanged:
			_, err := fmt.Fprintf(w, "#%d repeat %s\n", n.SequenceNo, e.Mode)
			return err
		default:
			_, err := fmt.Fprintf(w, "#%d %s\n", n.SequenceNo, e.Type)
			return err
		}
	})
}
