package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelfd/shelfd"
	"github.com/shelfd/shelfd/config"
	"github.com/shelfd/shelfd/database"
	shelfdhttp "github.com/shelfd/shelfd/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the shelfd HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "listen address (default: all interfaces)")
	serveCmd.Flags().Int("port", 8008, "HTTP server port")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	repos, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB()

	slog.Info("connected to database", "type", cfg.Database.Type)

	service := shelfd.NewCatalogService(repos.Catalog, shelfd.ServiceConfig{
		AllowDuplicateNames: cfg.Catalog.AllowDuplicateNames,
	})

	var gate shelfdhttp.Gate
	if cfg.Auth.Read == "private" || cfg.Auth.Write == "private" {
		gate = shelfd.NewAuthenticator(repos.Users)
	}

	handlerConfig := shelfdhttp.HandlerConfig{
		Read:  shelfdhttp.Access(cfg.Auth.Read),
		Write: shelfdhttp.Access(cfg.Auth.Write),
		Realm: cfg.Auth.Realm,
		CORS:  cfg.CORS,
	}

	handler := shelfdhttp.NewHandler(&handlerConfig, service, gate)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "read", cfg.Auth.Read, "write", cfg.Auth.Write)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
