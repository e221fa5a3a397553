// Package main provides the player entry point.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/fanmade/nowplaying/internal/app/icons"
	"github.com/fanmade/nowplaying/internal/app/notification"
	"github.com/fanmade/nowplaying/internal/app/playback"
	"github.com/fanmade/nowplaying/internal/domain/playlist"
	"github.com/fanmade/nowplaying/internal/infra/assets"
	"github.com/fanmade/nowplaying/internal/infra/audio"
	"github.com/fanmade/nowplaying/internal/infra/config"
	"github.com/fanmade/nowplaying/internal/infra/dom"
	"github.com/fanmade/nowplaying/internal/infra/fanmade"
	"github.com/fanmade/nowplaying/internal/infra/logger"
)

var (
	app        = kingpin.New("nowplaying", "Console player for fanmade music pages")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: from config)").String()

	// run command (default)
	runCmd   = app.Command("run", "Load a page and control its player from stdin (default)").Default()
	pagePath = runCmd.Flag("page", "Page path on the site (default: server.page)").String()
	pageFile = runCmd.Flag("file", "Read the page from a local HTML file instead").ExistingFile()

	// inline command
	inlineCmd = app.Command("inline", "Replace icon placeholders of an HTML file and write the result")
	inlineIn  = inlineCmd.Arg("in", "Input HTML file").Required().ExistingFile()
	inlineOut = inlineCmd.Arg("out", "Output HTML file").Required().String()

	// icons command
	iconsCmd = app.Command("icons", "List registered icons and exit")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Console logging until the config says otherwise
	if _, err := logger.Init(loggerConfig(nil)); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	if command == iconsCmd.FullCommand() {
		printIcons()
		return
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	closer, err := logger.Init(loggerConfig(cfg))
	if err != nil {
		zlog.Fatal().Msgf("Failed to initialize logger: %v", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case inlineCmd.FullCommand():
		err = inline(ctx, cfg, *inlineIn, *inlineOut)
	default:
		err = run(ctx, cfg, os.Stdin, os.Stdout)
	}
	if err != nil {
		zlog.Error().Msgf("Player error: %+v", err)
		closer.Close()
		os.Exit(1)
	}
}

// loggerConfig merges the config's log section with the command-line flags.
func loggerConfig(cfg *config.Config) logger.Config {
	lc := logger.Config{Output: "stdout", Level: "info"}
	if cfg != nil {
		lc.Output = cfg.Log.Output
		lc.Level = cfg.Log.Level
	}
	if *verbose {
		lc.Level = "debug"
	}
	if *logfile != "" {
		lc.Output = *logfile
	}
	return lc
}

// newLoader creates the icon loader for cfg.
func newLoader(cfg *config.Config) (*icons.Loader, error) {
	fetcher, err := assets.New(assets.Config{
		StaticPath: cfg.StaticURL(),
		Timeout:    time.Duration(cfg.Server.TimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create asset client")
	}
	return icons.NewLoader(fetcher, icons.NewRegistry(cfg.Static.Icons)), nil
}

// run executes the interactive player. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	client, err := fanmade.New(fanmade.Config{
		BaseURL: cfg.Server.BaseURL,
		Timeout: time.Duration(cfg.Server.TimeoutSec) * time.Second,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create API client")
	}

	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}

	doc, err := loadDocument(ctx, client, cfg)
	if err != nil {
		return err
	}
	page := dom.NewPage(doc)
	queue := playlist.NewQueue(page.TrackIDs())
	zlog.Info().Msgf("Page loaded: tracks=%d", queue.Len())

	media, err := audio.NewFromConfig(cfg.Media)
	if err != nil {
		return err
	}
	defer media.Close()

	ctrl := playback.NewController(queue, playback.Deps{
		Resolver: client,
		Media:    media,
		View:     page,
		Surface:  page,
	}, playback.Config{
		ResyncCursorOnSelect: cfg.Playback.ResyncCursorOnSelect,
		EventBuffer:          cfg.Playback.EventBuffer,
	})
	defer ctrl.Shutdown()

	p := newPlayer(ctrl, client, doc, out)
	defer p.Wait()

	notifier := notification.NewManager()
	defer notifier.Close()
	notifier.Subscribe(consoleStream(p.out))
	go notifier.Pump(ctx, ctrl.Events())

	// The loop button icons only exist once the loader replaced them.
	ready := loader.Ready(doc, page.LoopButton())
	go func() {
		err := ctrl.BindRepeatIndicator(ctx, ready, func() (playback.RepeatIndicator, error) {
			loop, err := page.LoopIcons()
			if err != nil {
				return nil, err
			}
			return loop, nil
		})
		if err != nil {
			zlog.Warn().Msgf("Repeat indicator not bound: %v", err)
		}
	}()
	go func() {
		report := loader.Materialize(ctx, doc)
		zlog.Info().Msgf("Icons loaded: replaced=%d unknown=%d failed=%d", report.Replaced, report.Unknown, report.Failed)
	}()

	if cfg.Playback.Autoplay {
		if id, ok := queue.At(0); ok {
			p.background(func() { ctrl.Play(ctx, id) })
		}
	}

	fmt.Fprintln(p.out, helpText)
	return readCommands(ctx, p, in)
}

// readCommands feeds lines from in to p until quit, EOF or cancellation.
func readCommands(ctx context.Context, p *player, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			zlog.Info().Msg("Received shutdown signal...")
			p.ctrl.Close()
			return nil
		case err := <-scanErr:
			if err != nil {
				return errors.Wrap(err, "failed to read commands")
			}
			return nil
		case line := <-lines:
			err := p.exec(ctx, line)
			if errors.Is(err, errQuit) {
				p.ctrl.Close()
				return nil
			}
			if err != nil {
				fmt.Fprintf(p.out, "error: %v\n", err)
			}
		}
	}
}

// loadDocument reads the player page from --file or from the site.
func loadDocument(ctx context.Context, client *fanmade.Client, cfg *config.Config) (*dom.Document, error) {
	var r io.ReadCloser
	if *pageFile != "" {
		f, err := os.Open(*pageFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open page file")
		}
		r = f
	} else {
		path := cfg.Server.Page
		if *pagePath != "" {
			path = *pagePath
		}
		zlog.Info().Msgf("Fetching page: path=%s", path)
		body, err := client.GetPage(ctx, path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch page")
		}
		r = body
	}
	defer r.Close()

	doc, err := dom.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse page")
	}
	return doc, nil
}

// inline materializes the icons of the in file and writes the document to out.
func inline(ctx context.Context, cfg *config.Config, in, out string) error {
	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(in)
	if err != nil {
		return errors.Wrap(err, "failed to open input")
	}
	doc, err := dom.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	report := loader.Materialize(ctx, doc)

	w, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "failed to create output")
	}
	defer w.Close()
	if err := doc.Render(w); err != nil {
		return errors.Wrap(err, "failed to render output")
	}

	zlog.Info().Msgf("Wrote %s: replaced=%d unknown=%d failed=%d remaining=%d",
		out, report.Replaced, report.Unknown, report.Failed, report.Remaining)
	return nil
}

// printIcons prints the icon registry. Extra icons from the config are
// included when the config loads.
func printIcons() {
	var extra map[string]string
	if cfg, err := config.Load(*configPath); err == nil {
		extra = cfg.Static.Icons
	} else {
		zlog.Debug().Msgf("Config not loaded, listing default icons: %v", err)
	}

	registry := icons.NewRegistry(extra)
	fmt.Printf("Registered Icons (%d):\n", registry.Len())
	for _, name := range registry.Names() {
		file, _ := registry.Lookup(name)
		fmt.Printf("  %-20s %s\n", name, file)
	}
}
