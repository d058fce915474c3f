package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/troshab/deckpreload/pkg/deck"
	"github.com/troshab/deckpreload/pkg/logger"
	"github.com/troshab/deckpreload/pkg/preloadlib"
)

var (
	cacheDir      string
	noStore       bool
	lookahead     int
	concurrency   int
	bgConcurrency int
	anchorMode    string
	position      int
	proxyURL      string
	slidePause    time.Duration
	quiet         bool

	warmFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "cache-dir, d",
			Usage:       "directory for the image cache (default: user cache dir)",
			Destination: &cacheDir,
		},
		cli.BoolFlag{
			Name:        "no-store",
			Usage:       "fetch without persisting bodies to the cache",
			Destination: &noStore,
		},
		cli.IntFlag{
			Name:        "lookahead, a",
			Usage:       "slides ahead of the position treated as high priority",
			Destination: &lookahead,
		},
		cli.IntFlag{
			Name:        "concurrency, c",
			Usage:       "batch size for priority dispatch",
			Destination: &concurrency,
		},
		cli.IntFlag{
			Name:        "bg-concurrency",
			Usage:       "batch size for the background drain",
			Destination: &bgConcurrency,
		},
		cli.StringFlag{
			Name:        "anchor",
			Usage:       "priority window anchoring: forward or bidirectional",
			Destination: &anchorMode,
		},
		cli.IntFlag{
			Name:        "position, p",
			Usage:       "1-based starting slide",
			Destination: &position,
		},
		cli.StringFlag{
			Name:        "proxy",
			Usage:       "proxy URL for image fetches (http, https or socks5)",
			Destination: &proxyURL,
		},
		cli.DurationFlag{
			Name:        "pause",
			Usage:       "pause between slides during the background drain",
			Destination: &slidePause,
		},
		cli.BoolFlag{
			Name:        "quiet, q",
			Usage:       "suppress the progress bar",
			Destination: &quiet,
		},
	}
)

func warm(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	render := newProgress(quiet)
	pre, store, err := buildPreloader(path, render.handlers())
	if errors.Is(err, preloadlib.ErrDisabled) {
		fmt.Println("preloading is disabled for this deck")
		return nil
	}
	if err != nil {
		return printRuntimeErr("warm", err)
	}
	if store != nil {
		defer store.Close()
	}

	if err := pre.Start(context.Background()); err != nil {
		return printRuntimeErr("warm", err)
	}
	render.setTotal(pre.Stats().Total)
	pre.Wait()
	pre.Stop()
	render.finish()

	printSummary(pre)
	return nil
}

// buildPreloader loads the deck at path, merges CLI flag overrides over the
// deck's own preload config and assembles the engine. A deck whose resolved
// config disables preloading yields ErrDisabled.
func buildPreloader(path string, handlers *preloadlib.Handlers) (*preloadlib.Preloader, *preloadlib.CacheStore, error) {
	d, err := deck.Load(afero.NewOsFs(), path)
	if err != nil {
		return nil, nil, err
	}
	if len(d.Slides) == 0 {
		return nil, nil, preloadlib.ErrEmptyDeck
	}

	cfg := d.Config
	if lookahead > 0 {
		cfg.Lookahead = lookahead
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	if bgConcurrency > 0 {
		cfg.BackgroundConcurrency = bgConcurrency
	}
	if anchorMode != "" {
		cfg.Anchor = anchorMode
	}
	if proxyURL != "" {
		cfg.Proxy = proxyURL
	}
	if slidePause > 0 {
		cfg.SlidePause = slidePause
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	if !cfg.IsEnabled() {
		return nil, nil, preloadlib.ErrDisabled
	}

	var store *preloadlib.CacheStore
	if !noStore {
		store, err = preloadlib.OpenCacheStore(cfg.CacheDir)
		if err != nil {
			return nil, nil, err
		}
	}

	host := preloadlib.NewStaticHost(d.Slides)
	if position > 0 {
		host.Goto(position)
	}

	pre, err := preloadlib.NewPreloader(host, cfg, &preloadlib.PreloaderOpts{
		Store:    store,
		Handlers: handlers,
		Logger:   logger.NewStandardLogger(log.New(os.Stderr, "", log.LstdFlags)),
	})
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, nil, err
	}
	return pre, store, nil
}

func printSummary(pre *preloadlib.Preloader) {
	st := pre.Stats()
	fmt.Printf("preloaded %d/%d images (%d failed)\n", st.Loaded, st.Total, st.Failed)
	if st.Failed == 0 {
		return
	}
	for url, err := range pre.FailedURLs() {
		fmt.Printf("  failed: %s: %v\n", url, err)
	}
}

func printRuntimeErr(scope string, err error) error {
	if errors.Is(err, preloadlib.ErrEmptyDeck) {
		fmt.Printf("deckpreload %s: deck has no slides\n", scope)
		return err
	}
	fmt.Printf("deckpreload %s: %v\n", scope, err)
	return err
}
