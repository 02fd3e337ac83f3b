package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/joshdurbin/shortlink/internal/cache"
	"github.com/joshdurbin/shortlink/internal/cache/maintainer"
	"github.com/joshdurbin/shortlink/internal/cache/memory"
	rediscache "github.com/joshdurbin/shortlink/internal/cache/redis"
	"github.com/joshdurbin/shortlink/internal/config"
	"github.com/joshdurbin/shortlink/internal/logging"
	"github.com/joshdurbin/shortlink/internal/metrics"
	"github.com/joshdurbin/shortlink/internal/repository"
	"github.com/joshdurbin/shortlink/internal/repository/gormdb"
	"github.com/joshdurbin/shortlink/internal/repository/sqlite"
	"github.com/joshdurbin/shortlink/internal/service"
	"github.com/joshdurbin/shortlink/internal/shortener"
	"github.com/joshdurbin/shortlink/internal/transport/client"
	httpTransport "github.com/joshdurbin/shortlink/internal/transport/http"
)

var rootCmd = &cobra.Command{
	Use:   "shortlink",
	Short: "A short-link resolver and writer written in Go",
	Long:  "Resolves short paths to URLs through a local LRU, an optional Redis tier and a SQLite or MySQL store",
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the short-link server",
	RunE:  runServer,
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Client commands for interacting with the server",
}

var writeCmd = &cobra.Command{
	Use:   "write [URL]",
	Short: "Create a short link, or create/update an explicit path with --path",
	Args:  cobra.ExactArgs(1),
	RunE:  runWrite,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [PATH]",
	Short: "Resolve a path to its URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	serverCmd.Flags().StringP("config", "c", "", "Path to a YAML config file")
	config.RegisterFlags(serverCmd.Flags())

	clientCmd.PersistentFlags().StringP("server-url", "u", "http://localhost:8080", "Server URL")
	writeCmd.Flags().String("path", "", "Explicit path to create or update")

	clientCmd.AddCommand(writeCmd, resolveCmd)
	rootCmd.AddCommand(serverCmd, clientCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Logging.Format, cfg.Logging.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"port":   cfg.Server.Port,
		"driver": cfg.Database.Driver,
		"redis":  cfg.Cache.Redis.Enabled,
	}).Info("starting shortlink server")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	repo, err := newRepository(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.WithError(err).Error("error closing repository")
		}
	}()

	local, err := memory.New(cfg.Cache.Local.Size)
	if err != nil {
		return fmt.Errorf("failed to create local cache: %w", err)
	}

	var distributed cache.Cache
	if cfg.Cache.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := rediscache.New(ctx, cfg.Cache.Redis.Options())
		cancel()
		if err != nil {
			return fmt.Errorf("failed to initialize distributed cache: %w", err)
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				logger.WithError(err).Error("error closing distributed cache")
			}
		}()
		distributed = redisCache
		logger.WithField("addr", cfg.Cache.Redis.Addr).Info("using Redis distributed cache")
	}

	cacheMaintainer := maintainer.New(cfg.Cache.Maintainer, local, distributed, logger, m)
	defer cacheMaintainer.Close()

	encoder, err := shortener.NewEncoder(cfg.Shortener)
	if err != nil {
		return fmt.Errorf("failed to create short ID encoder: %w", err)
	}

	shortlinks := service.New(
		service.NewResolver(local, distributed, repo, cacheMaintainer, logger, m),
		service.NewWriter(cfg.Writer, repo, encoder, local, cacheMaintainer, logger, m),
	)

	server := httpTransport.NewServer(shortlinks, registry, cfg.Server.Port, logger, cfg.Logging.Verbose)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("shutting down gracefully")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("error during server shutdown")
		}
	}

	logger.Info("server stopped")
	return nil
}

func newRepository(cfg config.DatabaseConfig) (repository.MappingRepository, error) {
	if cfg.Driver == gormdb.DriverMySQL {
		return gormdb.New(gormdb.DriverMySQL, cfg.DSN)
	}
	return sqlite.New(cfg.Path)
}

func runWrite(cmd *cobra.Command, args []string) error {
	serverURL, _ := cmd.Flags().GetString("server-url")
	path, _ := cmd.Flags().GetString("path")
	commands := client.NewCommands(client.NewClient(serverURL))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return commands.Write(ctx, path, args[0])
}

func runResolve(cmd *cobra.Command, args []string) error {
	serverURL, _ := cmd.Flags().GetString("server-url")
	commands := client.NewCommands(client.NewClient(serverURL))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return commands.Resolve(ctx, args[0])
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
