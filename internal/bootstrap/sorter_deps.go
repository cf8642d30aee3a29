package bootstrap

import (
	"context"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"sorter/adapter/out/filestore"
	"sorter/adapter/out/imessage"
	"sorter/adapter/out/messaging"
	"sorter/adapter/out/persistence"
	"sorter/config"
	"sorter/core/port/out"
	"sorter/core/service/categorize"
	"sorter/core/service/classification"
	"sorter/infra/database"
	"sorter/pkg/logger"
	"sorter/pkg/metrics"
)

// Dependencies holds every adapter a command may need. Stores that are not
// configured stay nil.
type Dependencies struct {
	Config  *config.Config
	Log     zerolog.Logger
	Metrics *metrics.Recorder
	Rules   *classification.Config

	DB    *sqlx.DB
	Redis *redis.Client

	Contacts  *persistence.ContactAdapter
	Settings  *persistence.SettingsAdapter
	Runs      out.RunStore
	Publisher out.AssignmentPublisher
	File      *filestore.ContactFile
}

// NewDependencies opens the contact store and the broker when configured.
// The message store is opened per command by the runner.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
		// stdout carries command output
		Output: os.Stderr,
	})

	rules, err := cfg.Rules()
	if err != nil {
		return nil, nil, err
	}

	deps := &Dependencies{
		Config:    cfg,
		Log:       log,
		Metrics:   metrics.NewRecorder(),
		Rules:     rules,
		Runs:      NewMemoryRunStore(),
		Publisher: out.NoopPublisher{},
		File:      filestore.NewContactFile(cfg.ContactsFile),
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresWithConfig(cfg.DatabaseURL, database.DefaultPostgresConfig(cfg.DBMaxConns))
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { db.Close() })

		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = persistence.Migrate(migrateCtx, db)
		cancel()
		if err != nil {
			cleanup()
			return nil, nil, err
		}

		deps.DB = db
		deps.Contacts = persistence.NewContactAdapter(db)
		deps.Settings = persistence.NewSettingsAdapter(db)
		if err := deps.Metrics.Register(metrics.PoolCollectors("postgres", db.DB)...); err != nil {
			log.Warn().Err(err).Msg("pool metrics not registered")
		}
		log.Info().Msg("contact store connected")
	} else {
		log.Warn().Msg("DATABASE_URL not set, contact store disabled")
	}

	if cfg.RedisURL != "" {
		client, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { client.Close() })

		producer := messaging.NewRedisProducer(client, cfg.RedisStream)
		deps.Redis = client
		deps.Publisher = producer
		deps.Runs = producer
		log.Info().Str("stream", producer.Stream()).Msg("event stream connected")
	}

	return deps, cleanup, nil
}

// NewRunner wires the batch runner over the dependencies.
func NewRunner(deps *Dependencies) *Runner {
	cfg := deps.Config

	chatDB := cfg.ChatDBPath
	if chatDB == "" {
		chatDB = imessage.DefaultChatDBPath()
	}
	bookDir := cfg.AddressBookDir
	if bookDir == "" {
		bookDir = imessage.DefaultAddressBookDir()
	}

	writer := persistence.DefaultWriterConfig()
	writer.MaxRetries = cfg.WriteMaxRetries

	r := &Runner{
		OpenStore: func() (out.MessageStore, error) {
			return imessage.OpenChatDB(chatDB, deps.Log)
		},
		AddressBook: imessage.NewAddressBook(bookDir, deps.Log),
		File:        deps.File,
		Publisher:   deps.Publisher,
		Runs:        deps.Runs,
		Rules:       deps.Rules,
		Engine: categorize.Config{
			Workers:      cfg.Workers,
			TierFallback: cfg.TierFallback,
		},
		Writer:  writer,
		Metrics: deps.Metrics,
		Log:     deps.Log,
		Now:     time.Now,
	}
	// Typed nil adapters must not leak into the interfaces.
	if deps.Contacts != nil {
		r.Contacts = deps.Contacts
	}
	if deps.Settings != nil {
		r.Settings = deps.Settings
	}
	return r
}
