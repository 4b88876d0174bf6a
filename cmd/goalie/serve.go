package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/goalie/internal/config"
	"github.com/ShayCichocki/goalie/internal/input"
	"github.com/ShayCichocki/goalie/internal/orchestrator"
)

var (
	serveSource string
	serveAddr   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Pursue objectives submitted over HTTP or a Redis stream",
	Long: `Serve runs the orchestrator headless, taking objectives from a network
source and publishing answers back to it.

Sources (--source, default input.source when it is http or redis):
  http   POST /objectives {"objective": "..."} returns a ticket;
         GET /answers/<id> returns its status and answer;
         GET /status shows the orchestrator state and recent events.
  redis  XREAD from input.redis_stream (field "objective"); answers are
         XADDed to input.answer_stream with the entry id as objective_id.

The agent cannot ask questions in serve mode.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveSource, "source", "", "Objective source: http or redis")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default input.http_addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Agent.AskUser = false

	source := serveSource
	if source == "" {
		source = cfg.Input.Source
		if source != config.SourceRedis {
			source = config.SourceHTTP
		}
	}
	if serveAddr != "" {
		cfg.Input.HTTPAddr = serveAddr
	}

	ctx, stop := signalContext()
	defer stop()

	switch source {
	case config.SourceHTTP:
		return serveHTTP(ctx, cfg)
	case config.SourceRedis:
		return serveRedis(ctx, cfg)
	default:
		return fmt.Errorf("serve: unsupported source %q (want http or redis)", source)
	}
}

func serveHTTP(ctx context.Context, cfg *config.Config) error {
	intake := input.NewHTTPIntake(cfg.Input.QueueSize)

	a, err := newApp(cfg, appOptions{
		source:    intake,
		out:       os.Stdout,
		observers: []func(orchestrator.Event){intake.Observe},
	})
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Input.HTTPAddr,
		Handler:           intake.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[serve] listening on %s", cfg.Input.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	driveErr := make(chan error, 1)
	go func() { driveErr <- a.drive(ctx, intake) }()

	select {
	case err = <-errCh:
		// the orchestrator must be idle before Close
		cancel()
		<-driveErr
	case err = <-driveErr:
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Printf("[serve] warning: shutdown: %v", serr)
	}
	return err
}

func serveRedis(ctx context.Context, cfg *config.Config) error {
	rdb, err := input.ConnectRedis(cfg.Input.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	src := input.NewRedisSource(rdb, cfg.Input.RedisStream, cfg.Input.AnswerStream, cfg.Input.RedisStart)
	a, err := newApp(cfg, appOptions{source: src, out: os.Stdout})
	if err != nil {
		return err
	}
	defer a.Close()

	log.Printf("[serve] reading objectives from redis stream %s", cfg.Input.RedisStream)
	return a.drive(ctx, src)
}
