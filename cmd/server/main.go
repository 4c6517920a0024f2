package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/HMasataka/logging"
	"github.com/HMasataka/minigolf/internal/config"
	"github.com/HMasataka/minigolf/internal/course"
	"github.com/HMasataka/minigolf/internal/handler"
	"github.com/HMasataka/minigolf/internal/server"
	"github.com/HMasataka/minigolf/pkg/accesslog"
	flag "github.com/spf13/pflag"
)

func main() {
	configPath := flag.String("config", "", "TOML config file")
	root := flag.String("root", "", "static root directory (default: executable directory)")
	host := flag.String("host", "", "listen host (default 127.0.0.1)")
	port := flag.Int("port", 0, "listen port, 0 picks a free port")
	noBrowser := flag.Bool("no-browser", false, "do not open the browser")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	level, levelErr := parseLogLevel(*logLevel)

	// stdout は起動メッセージ用に空けておく
	logger := slog.New(logging.NewHandler(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
	slog.SetDefault(logger)

	if levelErr != nil {
		slog.Warn("unknown log level, using info", slog.String("error", levelErr.Error()))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if flag.CommandLine.Changed("root") {
		cfg.Server.Root = *root
	}
	if flag.CommandLine.Changed("host") {
		cfg.Server.Host = *host
	}
	if flag.CommandLine.Changed("port") {
		cfg.Server.Port = *port
	}
	if *noBrowser {
		cfg.Server.OpenBrowser = false
	}

	if err := cfg.Resolve(); err != nil {
		slog.Error("invalid config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	lister := course.NewLister(cfg.CoursesPath(), cfg.Courses.Dir, course.ListerOptions{
		Workers: cfg.Courses.Workers,
	})
	h := handler.NewHandler(cfg.Server.Root, lister)
	router := handler.NewRouter(h, accesslog.New(os.Stderr, accesslog.DefaultOptions()).Middleware)

	opts := server.DefaultOptions()
	opts.Host = cfg.Server.Host
	opts.Port = cfg.Server.Port
	opts.ReadHeaderTimeout = cfg.Server.HeaderTimeout()

	s := server.New(router, opts)
	if err := s.Listen(); err != nil {
		slog.Error("failed to listen", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Serving Benny's Mini Golf at %s\n", s.URL())
	slog.Debug("static root", slog.String("root", cfg.Server.Root))

	if cfg.Server.OpenBrowser {
		server.OpenEntry(server.BrowserOpener{}, s.EntryURL(cfg.Server.Entry))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Serve(ctx); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println("\nServer stopped.")
}
