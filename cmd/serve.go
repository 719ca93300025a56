package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/bumper"
	"github.com/sells-group/ppm-finder/internal/report"
	"github.com/sells-group/ppm-finder/internal/server"
	"github.com/sells-group/ppm-finder/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the finder API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		idleTTL := time.Duration(cfg.Bumper.SessionIdleTTLMinutes) * time.Minute
		sessions := server.NewSessions(st, bumper.RealClock(), bumper.ThresholdsFrom(cfg.Bumper), idleTTL)
		defer sessions.Close()
		go sessions.Run(ctx, time.Minute)

		srvHandler := server.New(server.Deps{
			Catalog:        env.Catalog,
			Engine:         env.Engine,
			Builder:        env.Builder,
			Dispatcher:     report.DispatcherFromConfig(cfg.Report),
			Sessions:       sessions,
			FromEmail:      cfg.Report.FromEmail,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}).Handler()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srvHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("store", cfg.Store.Driver),
			zap.String("catalog", cfg.Catalog.Source),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
