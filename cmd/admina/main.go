package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Adeniyi-Bella/admina-backend/internal/admission"
	"github.com/Adeniyi-Bella/admina-backend/internal/config"
	"github.com/Adeniyi-Bella/admina-backend/internal/database"
	"github.com/Adeniyi-Bella/admina-backend/internal/janitor"
	"github.com/Adeniyi-Bella/admina-backend/internal/jobstatus"
	"github.com/Adeniyi-Bella/admina-backend/internal/lock"
	"github.com/Adeniyi-Bella/admina-backend/internal/queue"
	"github.com/Adeniyi-Bella/admina-backend/internal/repository"
	"github.com/Adeniyi-Bella/admina-backend/internal/s3storage"
	"github.com/Adeniyi-Bella/admina-backend/internal/server"
	"github.com/Adeniyi-Bella/admina-backend/internal/transform"
	"github.com/Adeniyi-Bella/admina-backend/internal/worker"

	goredis "github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "admina: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "admina",
		Short:        "Admina backend services",
		Long:         `Admina runs the document-processing backend: the admission API, the worker pool, and the account reclamation janitor.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newServeCmd(),
		newWorkerCmd(),
		newJanitorCmd(),
	)
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admission HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadBase()
			if err != nil {
				return err
			}
			defer logger.Sync()

			rdb := goredis.NewClient(&goredis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			defer rdb.Close()

			queueClient := queue.NewClient(redisOpt(cfg))
			defer queueClient.Close()

			controller := admission.NewController(
				lock.NewManager(rdb),
				queueClient,
				jobstatus.NewStore(rdb, cfg.StatusTTL),
				cfg.LockTTL,
				cfg.QueueCeiling,
				logger,
			)
			return server.New(cfg, controller, logger).Run(ctx)
		},
	}
}

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the document-processing worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadBase()
			if err != nil {
				return err
			}
			defer logger.Sync()

			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()
			if err := database.EnsureSchema(ctx, pool); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}

			store, err := s3storage.New(cfg)
			if err != nil {
				return fmt.Errorf("init storage: %w", err)
			}
			if err := store.EnsureBucket(ctx); err != nil {
				return fmt.Errorf("ensure bucket: %w", err)
			}

			rdb := goredis.NewClient(&goredis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			defer rdb.Close()

			processor := worker.NewProcessor(
				transform.NewClient(cfg.TransformURL, cfg.TransformTimeout),
				jobstatus.NewStore(rdb, cfg.StatusTTL),
				store,
				repository.NewDocumentRepository(pool),
				logger,
			)

			srv := asynq.NewServer(redisOpt(cfg), asynq.Config{
				Concurrency: cfg.ProcessingPool,
				Queues:      map[string]int{queue.Name: 1},
			})
			go func() {
				<-ctx.Done()
				srv.Shutdown()
			}()
			if err := srv.Run(processor.Handler()); err != nil && err != asynq.ErrServerClosed {
				return fmt.Errorf("worker stopped: %w", err)
			}
			return nil
		},
	}
}

func newJanitorCmd() *cobra.Command {
	var runOnce bool
	cmd := &cobra.Command{
		Use:   "janitor",
		Short: "Run the account reclamation sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadBase()
			if err != nil {
				return err
			}
			defer logger.Sync()

			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()
			if err := database.EnsureSchema(ctx, pool); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}

			store, err := s3storage.New(cfg)
			if err != nil {
				return fmt.Errorf("init storage: %w", err)
			}

			documents := repository.NewDocumentRepository(pool)
			conversations := repository.NewConversationRepository(pool)
			sweeper := janitor.NewSweeper(
				repository.NewAccountRepository(pool),
				[]janitor.Purger{
					janitor.PurgeFunc(documents.DeleteByOwner),
					janitor.PurgeFunc(conversations.DeleteByOwner),
					janitor.PurgeFunc(store.PurgePrefix),
				},
				cfg.SweepBatchSize,
				logger,
			)

			if runOnce {
				sweeper.RunOnce(ctx)
				return nil
			}

			c := cron.New()
			if _, err := c.AddFunc(cfg.SweepSchedule, func() { sweeper.RunOnce(ctx) }); err != nil {
				return fmt.Errorf("schedule sweep %q: %w", cfg.SweepSchedule, err)
			}
			c.Start()
			logger.Info("janitor scheduled", zap.String("schedule", cfg.SweepSchedule))

			<-ctx.Done()
			<-c.Stop().Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&runOnce, "once", false, "Run a single sweep and exit")
	return cmd
}

func loadBase() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}
