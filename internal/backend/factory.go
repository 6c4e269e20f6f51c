package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"khata/internal/adapters"
	"khata/internal/amqp"
	"khata/internal/auth"
	"khata/internal/cache"
	"khata/internal/services"
	"khata/internal/storage"
	fbstore "khata/internal/store/firebase"
	memstore "khata/internal/store/memory"
)

const tokenCacheSize = 1024

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case FirebaseBackend:
		return f.createFirebaseBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	f.logger.Info("initialized memory backend", "dev_owner", config.DevOwnerID)
	return &BackendResult{
		Backend:  memstore.New(),
		Verifier: auth.Static{UID: config.DevOwnerID, Email: config.DevOwnerEmail},
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	// AMQP is optional; without it writes stay local until a worker with a
	// broker runs a reconciliation pass.
	var amqpClient *amqp.Client
	var publisher services.ChangePublisher
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			publisher = amqpClient
			f.logger.Info("initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	service := services.NewLedgerService(repo, publisher)
	adapter := adapters.NewSQLiteAdapter(repo, service)

	f.logger.Info("initialized sqlite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Backend:  adapter,
		Verifier: auth.Static{UID: config.DevOwnerID, Email: config.DevOwnerEmail},
		Cleanup: func() error {
			if amqpClient != nil {
				amqpClient.Close()
			}
			return repo.Close()
		},
	}, nil
}

func (f *DefaultFactory) createFirebaseBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := fbstore.New(ctx, fbstore.Config{
		CredentialsFile: config.FirebaseCredentialsFile,
		CredentialsJSON: config.FirebaseCredentialsJSON,
		DatabaseURL:     config.FirebaseDatabaseURL,
		ProjectID:       config.FirebaseProjectID,
		PollInterval:    config.FirebasePollInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize firebase client: %w", err)
	}

	tokenCache := cache.NewLRUCache[auth.Identity](tokenCacheSize, 5*time.Minute)
	verifier := auth.NewCached(auth.NewFirebase(client.Auth()), tokenCache)

	cacheManager := cache.NewManager()
	cacheManager.Register(tokenCache)
	cacheManager.StartCleanup(time.Minute)

	f.logger.Info("initialized firebase backend",
		"project_id", config.FirebaseProjectID,
		"poll_interval", config.FirebasePollInterval)

	return &BackendResult{
		Backend:  client,
		Verifier: verifier,
		Cleanup: func() error {
			cacheManager.Stop()
			return nil
		},
	}, nil
}
