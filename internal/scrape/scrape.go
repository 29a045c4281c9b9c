
// Package scrape runs the article pipeline that follows link discovery:
// drop links saved by earlier runs, cap the batch, then fetch, convert and
// save each article with the polite delay after every request.
package scrape

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"sitescribe/internal/convert"
	"sitescribe/internal/discovery"
	"sitescribe/internal/models"
	"sitescribe/internal/parser"
	"sitescribe/internal/store"
	"sitescribe/pkg/logger"
)

// PreviewSize is how many discovered links are logged after discovery.
const PreviewSize = 10

// Discoverer finds the article links of a site.
type Discoverer interface {
	Run(ctx context.Context, opts models.Options) (models.LinkSet, error)
}

type Runner struct {
	fetcher   discovery.Fetcher
	discover  Discoverer
	store     *store.Store
	ledger    *store.Ledger
	parser    *parser.Parser
	converter *convert.Converter
	pacer     discovery.Pacer
	log       *logger.Logger
	runID     uuid.UUID
}

type Option func(*Runner)

// WithLedger records every saved article in l and skips URLs it already has.
func WithLedger(l *store.Ledger) Option { return func(r *Runner) { r.ledger = l } }

func WithPacer(p discovery.Pacer) Option { return func(r *Runner) { r.pacer = p } }

func WithLogger(l *logger.Logger) Option { return func(r *Runner) { r.log = l } }

func WithRunID(id uuid.UUID) Option { return func(r *Runner) { r.runID = id } }

func New(f discovery.Fetcher, d Discoverer, st *store.Store, opts ...Option) *Runner {
	r := &Runner{
		fetcher:   f,
		discover:  d,
		store:     st,
		parser:    parser.New(),
		converter: convert.New(),
		log:       logger.New(),
		runID:     uuid.New(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Runner) RunID() uuid.UUID { return r.runID }

// Summary reports the outcome of a run.
type Summary struct {
	RunID            uuid.UUID `json:"runId"`
	Discovered       int       `json:"discovered"`
	AlreadyProcessed int       `json:"alreadyProcessed"`
	Planned          int       `json:"planned"`
	Saved            int       `json:"saved"`
	Failed           int       `json:"failed"`
	OutputDir        string    `json:"outputDir"`
}

// Discover runs link discovery and returns the links in lexical order.
func (r *Runner) Discover(ctx context.Context, opts models.Options) ([]string, error) {
	set, err := r.discover.Run(ctx, opts)
	if err != nil {
		return nil, err
	}
	links := set.Sorted()
	r.log.Infof("found %d unique article links", len(links))
	for i, l := range Preview(links) {
		r.log.Infof("  %d. %s", i+1, l)
	}
	if len(links) > PreviewSize {
		r.log.Infof("  ... and %d more", len(links)-PreviewSize)
	}
	return links, nil
}

// Preview returns at most the first PreviewSize links.
func Preview(links []string) []string {
	return lo.Subset(links, 0, PreviewSize)
}

// Run discovers the links of opts.BaseURL and scrapes the new ones.
func (r *Runner) Run(ctx context.Context, opts models.Options) (Summary, error) {
	links, err := r.Discover(ctx, opts)
	if err != nil {
		return Summary{RunID: r.runID, OutputDir: r.store.Dir()}, err
	}
	return r.Scrape(ctx, opts, links)
}

// Scrape filters links against earlier runs, applies opts.MaxPages and saves
// each remaining article. Failures of single articles are counted and
// logged; only cancellation stops the loop early.
func (r *Runner) Scrape(ctx context.Context, opts models.Options, links []string) (Summary, error) {
	sum := Summary{RunID: r.runID, Discovered: len(links), OutputDir: r.store.Dir()}

	processed, err := r.Processed()
	if err != nil {
		return sum, err
	}
	plan := Plan(links, processed, opts.MaxPages)
	sum.AlreadyProcessed = len(lo.Filter(links, func(l string, _ int) bool { return processed.Has(l) }))
	sum.Planned = len(plan)
	r.log.Infof("%d links already processed, %d to scrape", sum.AlreadyProcessed, sum.Planned)

	pacer := r.pacer
	if pacer == nil {
		pacer = discovery.NewPacer(opts.Delay)
	}

	visited := make(map[string]bool, len(plan))
	for i, link := range plan {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		if visited[link] {
			continue
		}
		visited[link] = true

		r.log.Infof("processing [%d/%d]: %s", i+1, len(plan), link)
		path, err := r.scrapeOne(ctx, link)
		if werr := pacer.Wait(ctx); werr != nil {
			return sum, werr
		}
		if err != nil {
			sum.Failed++
			r.log.Warnf("error processing %s: %v", link, err)
			continue
		}
		sum.Saved++
		r.log.Debugf("saved %s to %s", link, path)
	}
	r.log.Infof("saved %d articles to %s (%d failed)", sum.Saved, sum.OutputDir, sum.Failed)
	return sum, nil
}

// Processed returns the URLs saved by earlier runs.
func (r *Runner) Processed() (models.LinkSet, error) {
	set, err := r.store.ProcessedURLs()
	if err != nil {
		return nil, err
	}
	if r.ledger != nil {
		recorded, err := r.ledger.URLs()
		if err != nil {
			return nil, err
		}
		set.Merge(recorded)
	}
	return set, nil
}

// Plan drops processed links and keeps the first maxPages of the rest, in
// order. maxPages <= 0 means no limit.
func Plan(links []string, processed models.LinkSet, maxPages int) []string {
	todo := lo.Filter(links, func(l string, _ int) bool { return !processed.Has(l) })
	if maxPages > 0 && len(todo) > maxPages {
		todo = todo[:maxPages]
	}
	return todo
}

func (r *Runner) scrapeOne(ctx context.Context, link string) (string, error) {
	resp, err := r.fetcher.Fetch(ctx, link)
	if err != nil {
		return "", &discovery.FetchError{URL: link, Op: "fetch article", Err: err}
	}
	doc, err := r.parser.Parse(resp.Body, resp.ContentType)
	if err != nil {
		return "", &discovery.ParseError{URL: link, Err: err}
	}
	article := r.parser.ExtractArticle(doc, link)
	converted, err := r.converter.Document(article)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", link, err)
	}
	path, err := r.store.Save(converted)
	if err != nil {
		return "", err
	}
	if r.ledger != nil {
		if err := r.ledger.Record(r.runID, link, path); err != nil {
			r.log.Warnf("%v", err)
		}
	}
	return path, nil
}
