package backend

import (
	"fmt"
	"time"

	"khata/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Firebase specific
	FirebaseCredentialsFile string
	FirebaseCredentialsJSON string
	FirebaseDatabaseURL     string
	FirebaseProjectID       string
	FirebasePollInterval    time.Duration

	// Development identity for memory and sqlite
	DevOwnerID    string
	DevOwnerEmail string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		FirebaseCredentialsFile: appConfig.FirebaseCredentialsFile,
		FirebaseCredentialsJSON: appConfig.FirebaseCredentialsJSON,
		FirebaseDatabaseURL:     appConfig.FirebaseDatabaseURL,
		FirebaseProjectID:       appConfig.FirebaseProjectID,
		FirebasePollInterval:    appConfig.FirebasePollInterval,

		DevOwnerID:    appConfig.DevOwnerID,
		DevOwnerEmail: appConfig.DevOwnerEmail,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
		// AMQP is optional; without it the sqlite backend runs unsynced.

	case FirebaseBackend:
		if c.FirebaseDatabaseURL == "" {
			return fmt.Errorf("Firebase database URL is required for firebase backend")
		}

	case MemoryBackend:
		if c.DevOwnerID == "" {
			return fmt.Errorf("dev owner id is required for memory backend")
		}
	}

	return nil
}
