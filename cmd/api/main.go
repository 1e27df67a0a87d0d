package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-kanban/internal/application/auth"
	"github.com/go-kanban/internal/config"
	"github.com/go-kanban/internal/infrastructure/console"
	"github.com/go-kanban/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-kanban/internal/infrastructure/jwt"
	"github.com/go-kanban/internal/infrastructure/memstore"
	"github.com/go-kanban/internal/infrastructure/metrics"
	"github.com/go-kanban/internal/infrastructure/redisstore"
	"github.com/go-kanban/internal/infrastructure/smtp"
	"github.com/go-kanban/internal/infrastructure/sns"
	"github.com/go-kanban/internal/infrastructure/sqlstore"
	"github.com/go-kanban/internal/pkg/logger"
	transporthttp "github.com/go-kanban/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"
	"gorm.io/gorm"
)

// purger is implemented by code stores without native expiry.
type purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// backends lazily opens the shared connections so that only the configured
// ones are dialed.
type backends struct {
	cfg    *config.Config
	db     *gorm.DB
	awsCfg *aws.Config
	dynamo dynamo.API
}

func (b *backends) sql() (*gorm.DB, error) {
	if b.db == nil {
		db, err := sqlstore.Open(b.cfg.SQLDriver, b.cfg.SQLDSN)
		if err != nil {
			return nil, err
		}
		b.db = db
	}
	return b.db, nil
}

func (b *backends) aws(ctx context.Context) (aws.Config, error) {
	if b.awsCfg == nil {
		c, err := dynamo.LoadAWSConfig(ctx, b.cfg)
		if err != nil {
			return aws.Config{}, err
		}
		b.awsCfg = &c
	}
	return *b.awsCfg, nil
}

func (b *backends) dynamoClient(ctx context.Context) (dynamo.API, error) {
	if b.dynamo == nil {
		awsCfg, err := b.aws(ctx)
		if err != nil {
			return nil, err
		}
		client := dynamo.NewClient(awsCfg, b.cfg)
		if b.cfg.IsDevelopment() {
			// Creates the tables on LocalStack; skips the ones that exist.
			dynamo.Bootstrap(ctx, client, b.cfg.DynamoTables)
		}
		b.dynamo = client
	}
	return b.dynamo, nil
}

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	port := flag.String("port", "", "listen port, overrides APP_PORT")
	flag.Parse()

	envErr := godotenv.Load(*envFile)
	cfg := config.Load()
	if *port != "" {
		cfg.AppPort = *port
	}
	log := logger.SetupDefault(os.Stdout, cfg.LogLevel)
	if envErr != nil {
		log.Info("no env file found, reading from environment", "path", *envFile)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := buildDeps(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	if p, ok := deps.CodeStore.(purger); ok {
		go runJanitor(ctx, p, time.Minute, log)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting",
			"port", cfg.AppPort, "env", cfg.AppEnv,
			"data_backend", cfg.DataBackend, "code_store", cfg.CodeStore,
			"notifier", cfg.Notifier, "token_signing", cfg.TokenSigning)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func buildDeps(ctx context.Context, cfg *config.Config, log *slog.Logger) (*transporthttp.Deps, error) {
	b := &backends{cfg: cfg}
	deps := &transporthttp.Deps{}

	switch cfg.DataBackend {
	case config.BackendSQL:
		db, err := b.sql()
		if err != nil {
			return nil, err
		}
		deps.UserRepo = sqlstore.NewUserRepo(db)
		deps.TaskRepo = sqlstore.NewTaskRepo(db)
	case config.BackendDynamo:
		client, err := b.dynamoClient(ctx)
		if err != nil {
			return nil, err
		}
		deps.UserRepo = dynamo.NewUserRepo(client, cfg.DynamoTables.Users)
		deps.TaskRepo = dynamo.NewTaskRepo(client, cfg.DynamoTables.Tasks)
	}

	codes, err := buildCodeStore(ctx, cfg, b)
	if err != nil {
		return nil, err
	}
	deps.CodeStore = codes

	notifier, err := buildNotifier(ctx, cfg, b, log)
	if err != nil {
		return nil, err
	}
	deps.Notifier = notifier

	codec, err := jwtinfra.NewCodec(cfg)
	if err != nil {
		return nil, err
	}
	if codec.Mode() == "none" {
		log.Warn("session tokens are unsigned, set TOKEN_SIGNING to hs256 or rs256 outside trusted networks")
	}
	deps.Codec = codec

	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		deps.Metrics = metrics.NewCollector(reg)
		deps.Gatherer = reg
	} else {
		deps.Metrics = metrics.Nop{}
	}
	return deps, nil
}

func buildCodeStore(ctx context.Context, cfg *config.Config, b *backends) (auth.CodeStore, error) {
	switch cfg.CodeStore {
	case config.BackendSQL:
		db, err := b.sql()
		if err != nil {
			return nil, err
		}
		return sqlstore.NewCodeStore(db), nil
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return redisstore.NewCodeStore(rdb, cfg.RedisKeyPrefix), nil
	case config.BackendDynamo:
		client, err := b.dynamoClient(ctx)
		if err != nil {
			return nil, err
		}
		return dynamo.NewCodeStore(client, cfg.DynamoTables.LoginCodes), nil
	default:
		return memstore.NewCodeStore(), nil
	}
}

func buildNotifier(ctx context.Context, cfg *config.Config, b *backends, log *slog.Logger) (auth.Notifier, error) {
	switch cfg.Notifier {
	case config.NotifierSMTP:
		return smtp.NewMailer(cfg), nil
	case config.NotifierSNS:
		awsCfg, err := b.aws(ctx)
		if err != nil {
			return nil, err
		}
		return sns.NewPublisher(awsCfg, cfg.SNSTopicARN), nil
	default:
		return console.NewNotifier(log), nil
	}
}

// runJanitor drops expired login codes every interval until ctx is done.
func runJanitor(ctx context.Context, p purger, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := p.PurgeExpired(ctx, now.UTC())
			if err != nil {
				log.Error("purge expired login codes", "err", err)
				continue
			}
			if n > 0 {
				log.Debug("purged expired login codes", "count", n)
			}
		}
	}
}
