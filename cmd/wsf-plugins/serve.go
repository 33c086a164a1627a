// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wsf-plugins/internal/logging"
	"github.com/pdiddy/wsf-plugins/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host every configured plugin over HTTP",
	Long: `Serve builds each plugin whose configuration is complete and exposes it
at POST /plugins/{name}. GET /plugins lists them and GET /health reports
liveness. Plugins with missing configuration are logged and skipped.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	plugins := configuredPlugins(cfg)
	if len(plugins) == 0 {
		return fmt.Errorf("no plugin is configured")
	}
	defer func() {
		for _, p := range plugins {
			if c, ok := p.(io.Closer); ok {
				c.Close()
			}
		}
	}()

	log := logging.For("server")
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(plugins, cfg.Server, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	log.WithField("addr", cfg.Server.Addr).WithField("plugins", len(plugins)).Info("serving")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
	rootCmd.AddCommand(serveCmd)
}
