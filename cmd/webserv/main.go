package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"dqx0.com/go/webserv/httpd"
	"dqx0.com/go/webserv/internal/obs"
)

func main() {
	var cfg httpd.Config
	flag.StringVar(&cfg.Addr, "addr", envStr("WEBSERV_ADDR", "127.0.0.1"), "bind address")
	flag.IntVar(&cfg.Port, "port", envInt("WEBSERV_PORT", 8888), "listen port")
	root := flag.String("root", envStr("WEBSERV_ROOT", "./web_root"), "document root directory")
	flag.IntVar(&cfg.Backlog, "backlog", envInt("WEBSERV_BACKLOG", 128), "max concurrently served connections")
	flag.BoolVar(&cfg.KeepAlive, "keepalive", false, "allow multiple requests per connection")
	flag.DurationVar(&cfg.IdleTimeout, "idle-timeout", 30*time.Second, "idle timeout between keep-alive requests")
	flag.DurationVar(&cfg.ReadHeaderTimeout, "read-timeout", 10*time.Second, "timeout for parsing one request")
	flag.Int64Var(&cfg.MaxRequestsPerConn, "max-requests", 100, "max requests per keep-alive connection, 0 for unlimited")
	flag.DurationVar(&cfg.ShutdownGrace, "grace", 5*time.Second, "shutdown grace period")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	if !*debug {
		zl = zl.Level(zerolog.InfoLevel)
	}
	log := obs.Zerolog{L: zl}

	reg := httpd.NewStatsRegistry()
	docRoot := os.DirFS(*root)
	rt := httpd.NewRouter()
	rt.Handle("GET", "/hello", httpd.NewHello())
	rt.Handle("GET", "/status", httpd.NewStatus(reg))
	rt.Handle("GET", "/quote", httpd.NewQuote(docRoot))
	rt.SetStatic(httpd.NewStatic(docRoot, log))

	srv := &httpd.Server{
		Config:  cfg,
		Handler: rt,
		Stats:   reg,
		Log:     log,
		Meter:   reg,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	zl.Info().Str("root", *root).Msgf("serving on http://%s:%d/", cfg.Addr, cfg.Port)

	select {
	case err := <-errc:
		// Bind failures land here before any connection is accepted.
		zl.Fatal().Err(err).Msg("server failed")
	case <-ctx.Done():
		zl.Info().Msg("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace+time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			zl.Warn().Err(err).Msg("shutdown incomplete")
		}
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
