package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/newsdesk/internal/api"
	"github.com/jon4hz/newsdesk/internal/cache"
	"github.com/jon4hz/newsdesk/internal/jobs"
	"github.com/jon4hz/newsdesk/internal/scheduler"
	"github.com/jon4hz/newsdesk/internal/service"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the newsdesk server",
	Long:  `Start the newsdesk web server with the HTML pages and the JSON API.`,
	Example: `newsdesk serve --config config.yml
newsdesk serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) {
	cfg, db, err := openDatabase()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint: errcheck

	userCache := cache.NewUserCache(cfg.Cache)
	svc := service.New(db, userCache)

	sched, err := scheduler.New()
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}
	if err := jobs.Register(sched, cfg.Cache, userCache, svc); err != nil {
		log.Fatalf("failed to register jobs: %v", err)
	}

	server, err := api.New(cfg, svc)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	sched.Start()

	// Start the API server in a goroutine
	go func() {
		if err := server.Run(); err != nil {
			log.Error("API server error", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	log.Info("newsdesk started successfully")
	select {
	case <-c:
	case <-cmd.Context().Done():
	}
	log.Info("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shut down API server", "error", err)
	}
	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler", "error", err)
	}
}
