package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sardedge "github.com/dgduncan/sard-edge"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "sard-edge: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(c logConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// newProxy forwards every request to origin, keeping the public Host header so the
// origin application and the cache key both see the address the client used.
func newProxy(origin *url.URL, transport http.RoundTripper, logger *slog.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(origin)
			pr.Out.Host = pr.In.Host
			pr.SetXForwarded()
		},
		Transport: transport,
		ErrorLog:  slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	origin, err := url.Parse(cfg.Origin.URL)
	if err != nil {
		return fmt.Errorf("parse origin.url: %w", err)
	}

	cache, closeCache, err := newCache(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init %s cache: %w", cfg.Cache.Driver, err)
	}
	defer func() {
		if err := closeCache(); err != nil {
			logger.Warn("error closing cache", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	transport := sardedge.New(cache, &sardedge.Config{
		APIURL:     cfg.API.URL,
		SiteURL:    cfg.Site.URL,
		SiteName:   cfg.Site.Name,
		RenderedBy: cfg.Render.Marker,
		CacheTTL:   cfg.Cache.TTL,
		Crawlers:   cfg.Render.Crawlers,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
		Metrics:    sardedge.NewMetrics(reg),
	}, nil, logger)(http.DefaultTransport)

	proxyServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: newProxy(origin, transport, logger),
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsMux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{
		Addr:    cfg.Server.MetricsAddr,
		Handler: metricsMux,
	}

	errc := make(chan error, 2)
	for name, srv := range map[string]*http.Server{"proxy": proxyServer, "metrics": metricsServer} {
		name, srv := name, srv
		go func() {
			logger.Info("starting server", "server", name, "addr", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("%s server: %w", name, err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err = <-errc:
		logger.Error("server failed", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if serr := proxyServer.Shutdown(shutdownCtx); serr != nil {
		logger.Error("error shutting down proxy server", "error", serr)
	}
	if serr := metricsServer.Shutdown(shutdownCtx); serr != nil {
		logger.Error("error shutting down metrics server", "error", serr)
	}

	logger.Info("shutdown complete")
	return err
}
