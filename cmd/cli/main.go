package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"sitescribe/internal/config"
	"sitescribe/internal/crawler"
	"sitescribe/internal/discovery"
	"sitescribe/internal/ioformats"
	"sitescribe/internal/scrape"
	"sitescribe/internal/store"
	"sitescribe/pkg/logger"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	dialTimeout = 5 * time.Second
	bodySizeCap = 10 * 1024 * 1024
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	cfg, err := config.Parse(args, stderr)
	if errors.Is(err, config.ErrUsage) {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return exitError
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return exitError
	}

	runID := uuid.New()
	l := logger.NewWithLevel(stderr, level).With("run", runID.String())
	opts := cfg.Options()

	client := crawler.NewHTTPClient(cfg.Timeout, dialTimeout, bodySizeCap).WithUserAgent(cfg.UserAgent)
	d := discovery.New(client, discovery.WithLogger(l), discovery.WithHosts(cfg.HostTable()))

	var links []string
	if cfg.URLsFile != "" {
		links, err = ioformats.ReadURLs(cfg.URLsFile)
		if err != nil {
			l.Errorf("%v", err)
			return exitError
		}
		l.Infof("read %d links from %s", len(links), cfg.URLsFile)
	} else {
		links, err = scrape.New(client, d, nil, scrape.WithLogger(l), scrape.WithRunID(runID)).Discover(ctx, opts)
		if err != nil {
			l.Errorf("discovery failed: %v", err)
			return exitError
		}
	}

	if cfg.LinksOut != "" {
		if err := ioformats.WriteLinks(cfg.LinksOut, links); err != nil {
			l.Errorf("%v", err)
			return exitError
		}
		l.Infof("wrote %d links to %s", len(links), cfg.LinksOut)
	}
	if cfg.DiscoverOnly {
		fmt.Fprintf(stdout, "Discovered %d article links.\n", len(links))
		return exitOK
	}
	if len(links) == 0 {
		l.Warnf("no article links found")
		fmt.Fprintln(stdout, "No article links found.")
		return exitOK
	}

	st, err := store.New(cfg.OutputDir, l)
	if err != nil {
		l.Errorf("%v", err)
		return exitError
	}
	runnerOpts := []scrape.Option{scrape.WithLogger(l), scrape.WithRunID(runID)}
	if cfg.LedgerPath != "" {
		ledger, err := store.NewLedger(cfg.LedgerPath)
		if err != nil {
			l.Errorf("%v", err)
			return exitError
		}
		defer ledger.Close()
		runnerOpts = append(runnerOpts, scrape.WithLedger(ledger))
	}

	sum, err := scrape.New(client, d, st, runnerOpts...).Scrape(ctx, opts, links)
	fmt.Fprintf(stdout, "Scraping complete! Processed %d articles (%d failed, %d already saved).\n", sum.Saved, sum.Failed, sum.AlreadyProcessed)
	fmt.Fprintf(stdout, "Files saved in: %s\n", sum.OutputDir)
	if err != nil {
		l.Errorf("run stopped: %v", err)
		return exitError
	}
	return exitOK
}
