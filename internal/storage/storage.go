package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/kukucorn/ai-running-coach/internal/config"
)

// User is a Telegram account that has started the bot. Upserted by ID.
type User struct {
	ID          int64     `json:"telegram_id"`
	Username    string    `json:"username,omitempty"`
	DisplayName string    `json:"display_name"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Workout is one /record entry. It is never mutated after creation.
type Workout struct {
	ID         string        `json:"id"`
	UserID     int64         `json:"telegram_id"`
	DistanceKm float64       `json:"distance_km"`
	Duration   time.Duration `json:"duration"`
	PacePerKm  time.Duration `json:"pace_per_km"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Conversation is one free-text exchange.
type Conversation struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"telegram_id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists users, workouts and conversations. It performs writes only.
// Implementations must be safe for concurrent use.
type Store interface {
	UpsertUser(ctx context.Context, u User) error
	InsertWorkout(ctx context.Context, w Workout) error
	InsertConversation(ctx context.Context, c Conversation) error
	Close() error
}

// Open selects a backend from cfg.DBDriver.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dsn, err := withPassword(cfg.DatabaseURL, cfg.DatabaseKey)
		if err != nil {
			return nil, err
		}
		return NewSQLStore(DialectPostgres, WithDSN(dsn))
	case config.DriverSQLite:
		return NewSQLStore(DialectSQLite, WithDSN(cfg.DatabaseURL))
	case config.DriverFile:
		return NewFileStore(cfg.RecordsFilePath)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}

// withPassword injects key as the password of a URL-form DSN.
func withPassword(dsn, key string) (string, error) {
	if key == "" {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("DATABASE_KEY requires a URL-form DATABASE_URL")
	}
	name := ""
	if u.User != nil {
		name = u.User.Username()
	}
	u.User = url.UserPassword(name, key)
	return u.String(), nil
}
