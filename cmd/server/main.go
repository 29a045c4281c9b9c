package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"sitescribe/internal/config"
	"sitescribe/internal/crawler"
	"sitescribe/internal/discovery"
	"sitescribe/internal/models"
	"sitescribe/pkg/logger"
)

type discoverReq struct {
	URL       string `json:"url"`
	Sitemap   string `json:"sitemap,omitempty"`
	WordPress bool   `json:"wordpress,omitempty"`
	Feeds     bool   `json:"feeds,omitempty"`
}

type discoverResp struct {
	URL   string   `json:"url"`
	Links []string `json:"links"`
	Count int      `json:"count"`
	Error string   `json:"error,omitempty"`
}

type batchReq struct {
	Sites []discoverReq `json:"sites"`
}

type linkDiscoverer interface {
	Run(ctx context.Context, opts models.Options) (models.LinkSet, error)
}

type server struct {
	disc        linkDiscoverer
	log         *logger.Logger
	delay       time.Duration
	timeout     time.Duration
	concurrency int
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	delay := flag.Duration("delay", time.Second, "pause after every outbound request")
	timeout := flag.Duration("timeout", 2*time.Minute, "time limit for one site discovery")
	rps := flag.Float64("rate", 1, "discovery requests accepted per second")
	burst := flag.Int("burst", 5, "discovery request burst")
	cfgPath := flag.String("config", "", "YAML config file with host overrides")
	flag.Parse()

	l := logger.New()
	if err := config.LoadDotEnv(".env"); err != nil {
		l.Errorf("%v", err)
		os.Exit(1)
	}
	hosts := discovery.DefaultHosts()
	userAgent := ""
	if *cfgPath != "" {
		fc, err := config.LoadFile(*cfgPath)
		if err != nil {
			l.Errorf("%v", err)
			os.Exit(1)
		}
		rules, err := fc.HostRules()
		if err != nil {
			l.Errorf("%v", err)
			os.Exit(1)
		}
		hosts = hosts.With(rules...)
		if fc != nil {
			userAgent = fc.UserAgent
		}
	}

	client := crawler.NewHTTPClient(30*time.Second, 5*time.Second, 10*1024*1024).WithUserAgent(userAgent)
	s := &server{
		disc:        discovery.New(client, discovery.WithLogger(l), discovery.WithHosts(hosts)),
		log:         l,
		delay:       *delay,
		timeout:     *timeout,
		concurrency: 4,
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      logRequest(l, s.routes(rate.NewLimiter(rate.Limit(*rps), *burst))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: *timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Infof("server listening on %s", *addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Infof("bye")
}

func (s *server) routes(lim *rate.Limiter) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	// POST /discover  { "url": "https://...", "sitemap": "...", "wordpress": true }
	mux.Handle("/discover", rateLimit(lim, http.HandlerFunc(s.handleDiscover)))
	// POST /discover/batch  { "sites": [{ "url": "https://..." }, ...] }
	mux.Handle("/discover/batch", rateLimit(lim, http.HandlerFunc(s.handleBatch)))
	return mux
}

func (s *server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req discoverReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	opts := s.options(req)
	if err := discovery.ValidateBaseURL(opts.BaseURL); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res := s.discover(r.Context(), opts)
	if res.Error != "" {
		writeJSON(w, http.StatusGatewayTimeout, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req batchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Sites) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	results := make([]discoverResp, len(req.Sites))

	// bounded concurrency; each site is still crawled one request at a time
	sem := make(chan struct{}, s.concurrency)
	done := make(chan int, len(req.Sites))

	for i, site := range req.Sites {
		sem <- struct{}{} // acquire
		go func() {
			defer func() { <-sem; done <- i }()
			opts := s.options(site)
			if err := discovery.ValidateBaseURL(opts.BaseURL); err != nil {
				results[i] = discoverResp{URL: site.URL, Links: []string{}, Error: err.Error()}
				return
			}
			results[i] = s.discover(r.Context(), opts)
		}()
	}
	// wait
	for range req.Sites {
		<-done
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *server) options(req discoverReq) models.Options {
	return models.Options{
		BaseURL:      config.NormalizeBaseURL(req.URL),
		SitemapURL:   strings.TrimSpace(req.Sitemap),
		TryWordPress: req.WordPress,
		TryFeeds:     req.Feeds,
		Delay:        s.delay,
	}
}

func (s *server) discover(ctx context.Context, opts models.Options) discoverResp {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	links, err := s.disc.Run(ctx, opts)
	res := discoverResp{URL: opts.BaseURL, Links: links.Sorted(), Count: links.Len()}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func rateLimit(lim *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !lim.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func logRequest(l *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Infof("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
