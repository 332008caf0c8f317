package scoredb

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_InsertAndTop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scores.db")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	runs := []Entry{
		{PlayerName: "ana", Score: 1200.5, Earnings: 1400, Reputation: 88, Deliveries: 5, Outcome: "victory"},
		{PlayerName: "bo", Score: 300, Earnings: 600, Reputation: 40, Deliveries: 2, Outcome: "timeout"},
		{PlayerName: "cy", Score: 1200.5, Earnings: 1100, Reputation: 92, Deliveries: 4, Outcome: "victory"},
	}
	for _, r := range runs {
		if _, err := st.Insert(ctx, r); err != nil {
			t.Fatalf("Insert %s: %v", r.PlayerName, err)
		}
	}

	top, err := st.Top(ctx, 2)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Top len = %d, want 2", len(top))
	}
	// Tie on score: the earlier row keeps the higher rank.
	if top[0].PlayerName != "ana" || top[1].PlayerName != "cy" {
		t.Fatalf("Top order = %s,%s; want ana,cy", top[0].PlayerName, top[1].PlayerName)
	}

	best, ok, err := st.Best(ctx)
	if err != nil || !ok {
		t.Fatalf("Best: ok=%v err=%v", ok, err)
	}
	if best.Score != 1200.5 || best.PlayerName != "ana" {
		t.Fatalf("Best = %+v", best)
	}
	if best.RecordedAt.IsZero() || best.RecordedAt.After(time.Now().Add(time.Minute)) {
		t.Fatalf("RecordedAt not stamped: %v", best.RecordedAt)
	}
}

func TestStore_EmptyAndDefaults(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if _, ok, err := st.Best(ctx); err != nil || ok {
		t.Fatalf("Best on empty table: ok=%v err=%v", ok, err)
	}

	if _, err := st.Insert(ctx, Entry{Score: 10}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	top, err := st.Top(ctx, 0) // limit defaulted
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 1 || top[0].PlayerName != "anonymous" {
		t.Fatalf("defaulted row = %+v", top)
	}
}
