package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"igdownloader/internal/server"
	"igdownloader/pkg/archive"
	"igdownloader/pkg/auth"
	"igdownloader/pkg/config"
	"igdownloader/pkg/extractor"
	"igdownloader/pkg/instagram"
	"igdownloader/pkg/lock"
	"igdownloader/pkg/logger"
	"igdownloader/pkg/mailer"
	"igdownloader/pkg/ratelimit"
	"igdownloader/pkg/relay"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP download service",
	Long: `Start the HTTP server exposing the download, bundle, proxy and
contact endpoints.

The RapidAPI key is taken from config or the RAPIDAPI_KEY environment
variable; when neither is set, stored credentials are used
(see 'igdownloader auth').`,
	Example: `  # Serve with defaults on :8080
  igdownloader serve

  # Serve with an explicit config file
  igdownloader serve --config ./igdownloader.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	if cfg.RapidAPI.APIKey == "" {
		if err := resolveAPIKey(cfg); err != nil {
			return err
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lockStore := lock.NewRedisStore(redisClient)
	if err := lockStore.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}

	endpoints := instagram.NewEndpoints(cfg.RapidAPI.Host)
	client := instagram.NewClient(endpoints, cfg.RapidAPI.APIKey,
		cfg.RapidAPI.MetadataTimeout, cfg.RapidAPI.MediaTimeout, log)

	storyLock := lock.New(lockStore, cfg.Lock.Key, cfg.Lock.TTL,
		cfg.Lock.PollInterval, cfg.Lock.MaxWait, log)
	pacer := ratelimit.NewTokenBucket(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval)

	ext := extractor.New(client, storyLock, pacer, cfg.RateLimit.HighlightDelay, log)
	arch := archive.NewBuilder(client, log)
	rel := relay.New(cfg.RapidAPI.MediaTimeout, log)
	mail := mailer.New(cfg.SMTP, log)

	srv := server.New(cfg, ext, arch, rel, mail, log)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		log.InfoWithFields("received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	_ = redisClient.Close()
	log.Info("server stopped")
	return nil
}

// resolveAPIKey falls back to stored credentials when neither config nor
// environment provides the key
func resolveAPIKey(cfg *config.Config) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("RapidAPI key is not configured and credential stores are unavailable: %w", err)
	}

	account := cfg.RapidAPI.Account
	if account == "" {
		account = "default"
	}

	cred, err := manager.Retrieve(account)
	if err != nil {
		return fmt.Errorf("RapidAPI key is not configured: set RAPIDAPI_KEY or run 'igdownloader auth set'")
	}

	cfg.RapidAPI.APIKey = cred.APIKey
	return nil
}
