package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/datenollm/internal/dateno"
	"github.com/ziadkadry99/datenollm/internal/db"
	"github.com/ziadkadry99/datenollm/internal/journal"
	"github.com/ziadkadry99/datenollm/internal/metrics"
	"github.com/ziadkadry99/datenollm/internal/server"
)

var (
	servePort      int
	serveNoJournal bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket query server",
	Long: `Starts the datenollm server. It exposes /api/ask, /api/filter, /api/like,
/api/logs and the Dateno search helpers over HTTP, a chat stream on /ws,
Prometheus metrics on /metrics and the request journal on /api/journal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg.LogLevel)

		orch, err := createOrchestrator(cfg, log)
		if err != nil {
			return err
		}

		deps := server.Deps{
			Dateno:  dateno.NewClient(cfg.Dateno.BaseURL, cfg.Dateno.APIKey),
			Metrics: metrics.NewQueryMetrics(nil),
			Logger:  log,
		}
		if cfg.Dateno.Limit > 0 {
			deps.Page = dateno.Page{Offset: 0, Page: 1, Limit: cfg.Dateno.Limit}
		}

		if !serveNoJournal {
			database, err := db.Open(cfg.Server.DatabasePath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()
			deps.Journal = journal.NewStore(database)
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		srv := server.New(server.Config{
			Port:           port,
			RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
			AuthToken:      cfg.Server.AuthToken,
			AllowAll:       cfg.Server.AllowAll,
		}, orch, deps)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		settings := orch.Settings()
		fmt.Fprintf(os.Stderr, "datenollm server %s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Model: %s\n", settings.Model)
		fmt.Fprintf(os.Stderr, "  API base: %s\n", settings.OpenAIAPIBase)
		fmt.Fprintf(os.Stderr, "  Flagging dir: %s\n", settings.FlaggingDir)
		if deps.Journal != nil {
			fmt.Fprintf(os.Stderr, "  Journal: %s\n", cfg.Server.DatabasePath)
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 7861, "port to listen on")
	serveCmd.Flags().BoolVar(&serveNoJournal, "no-journal", false, "do not record requests in the SQLite journal")
	rootCmd.AddCommand(serveCmd)
}
