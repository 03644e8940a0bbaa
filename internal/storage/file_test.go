package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStore_AppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "records.jsonl")
	s, err := NewFileStore(p)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	ctx := context.Background()

	if err := s.UpsertUser(ctx, User{ID: 1, Username: "runner", DisplayName: "Kim"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	w := Workout{UserID: 1, DistanceKm: 5, Duration: 25*time.Minute + 47*time.Second, PacePerKm: 309 * time.Second}
	if err := s.InsertWorkout(ctx, w); err != nil {
		t.Fatalf("insert workout: %v", err)
	}
	if err := s.InsertConversation(ctx, Conversation{UserID: 1, UserMessage: "hi", BotResponse: "hello"}); err != nil {
		t.Fatalf("insert conversation: %v", err)
	}

	recs := readRecords(t, p)
	if len(recs) != 3 {
		t.Fatalf("want 3, got %d", len(recs))
	}
	if recs[0].Table != TableUsers || recs[0].User == nil || recs[0].User.DisplayName != "Kim" {
		t.Fatalf("unexpected user record: %+v", recs[0])
	}
	if recs[1].Table != TableWorkouts || recs[1].Workout == nil || recs[1].Workout.ID == "" || recs[1].Workout.PacePerKm != 309*time.Second {
		t.Fatalf("unexpected workout record: %+v", recs[1])
	}
	if recs[2].Table != TableConversations || recs[2].Conversation == nil || recs[2].Conversation.BotResponse != "hello" {
		t.Fatalf("unexpected conversation record: %+v", recs[2])
	}

	st, err := os.Stat(p)
	if err != nil || st.Size() == 0 {
		t.Fatalf("file not written")
	}
}

func readRecords(t *testing.T, path string) []Record {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var out []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("malformed line %q: %v", sc.Text(), err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}
