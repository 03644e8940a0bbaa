package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// Connection pool bounds for the Postgres backend.
const (
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 10
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type Opts struct {
	DSN string
}

type Option func(*Opts)

func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// SQLStore writes to a Postgres or SQLite database through database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLStore(dialect Dialect, opts ...Option) (*SQLStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	var migrations string
	switch dialect {
	case DialectPostgres:
		migrations = postgresMigrations
	case DialectSQLite:
		migrations = sqliteMigrations
		if dir := filepath.Dir(cfg.DSN); !strings.HasPrefix(cfg.DSN, "file:") && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}

	db, err := sql.Open(string(dialect), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectPostgres {
		db.SetMaxOpenConns(DefaultMaxOpenConns)
		db.SetMaxIdleConns(DefaultMaxIdleConns)
		db.SetConnMaxLifetime(DefaultConnMaxLifetime)
	} else {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s ping failed: %w", dialect, err)
	}
	if _, err := db.Exec(migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Printf("storage: %s store ready", dialect)
	return &SQLStore{db: db, dialect: dialect}, nil
}

// rebind rewrites '?' placeholders into '$n' for Postgres.
func (s *SQLStore) rebind(q string) string {
	if s.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

func (s *SQLStore) UpsertUser(ctx context.Context, u User) error {
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = time.Now().UTC()
	}
	q := s.rebind(`INSERT INTO users (telegram_id, username, display_name, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (telegram_id) DO UPDATE SET username = excluded.username, display_name = excluded.display_name, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, q, u.ID, nullIfEmpty(u.Username), u.DisplayName, u.UpdatedAt); err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

func (s *SQLStore) InsertWorkout(ctx context.Context, w Workout) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.RecordedAt.IsZero() {
		w.RecordedAt = time.Now().UTC()
	}
	q := s.rebind(`INSERT INTO workouts (id, telegram_id, distance_km, duration_seconds, pace_seconds_per_km, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q, w.ID, w.UserID, w.DistanceKm,
		int64(w.Duration/time.Second), int64(w.PacePerKm/time.Second), w.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert workout for %d: %w", w.UserID, err)
	}
	return nil
}

func (s *SQLStore) InsertConversation(ctx context.Context, c Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	q := s.rebind(`INSERT INTO conversations (id, telegram_id, user_message, bot_response, created_at) VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, c.ID, c.UserID, c.UserMessage, c.BotResponse, c.CreatedAt); err != nil {
		return fmt.Errorf("insert conversation for %d: %w", c.UserID, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
