package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TableUsers         = "users"
	TableWorkouts      = "workouts"
	TableConversations = "conversations"
)

// Record is one line of the JSONL log. Exactly one payload field is set.
type Record struct {
	Table        string        `json:"table"`
	Timestamp    time.Time     `json:"timestamp"`
	User         *User         `json:"user,omitempty"`
	Workout      *Workout      `json:"workout,omitempty"`
	Conversation *Conversation `json:"conversation,omitempty"`
}

// FileStore appends every write to a JSONL file. It stands in for a
// database during local development; user upserts are appended and the
// last line for an ID wins.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure records dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to init records file: %w", err)
	}
	_ = f.Close()
	return &FileStore{path: path}, nil
}

func (s *FileStore) UpsertUser(_ context.Context, u User) error {
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = time.Now().UTC()
	}
	return s.append(Record{Table: TableUsers, Timestamp: u.UpdatedAt, User: &u})
}

func (s *FileStore) InsertWorkout(_ context.Context, w Workout) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.RecordedAt.IsZero() {
		w.RecordedAt = time.Now().UTC()
	}
	return s.append(Record{Table: TableWorkouts, Timestamp: w.RecordedAt, Workout: &w})
}

func (s *FileStore) InsertConversation(_ context.Context, c Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return s.append(Record{Table: TableConversations, Timestamp: c.CreatedAt, Conversation: &c})
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open append: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("encode append: %w", err)
	}
	return nil
}
