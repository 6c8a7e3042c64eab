package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	if err := store.AddPoints(ctx, "player1", "throw1", 60); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AddPoints(ctx, "player1", "throw2", 19); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	entry, err := store.Rank(ctx, "player1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 {
		t.Errorf("expected rank 1, got %d", entry.Rank)
	}
	if entry.Total != 79 {
		t.Errorf("expected total 79, got %d", entry.Total)
	}
	if entry.Throws != 2 {
		t.Errorf("expected 2 throws, got %d", entry.Throws)
	}
	if entry.LastThrowID != "throw2" {
		t.Errorf("expected last throw throw2, got %s", entry.LastThrowID)
	}
}

func TestTreapStore_ZeroPointThrowsStillCount(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	if err := store.AddPoints(ctx, "player1", "miss", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, err := store.Rank(ctx, "player1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Total != 0 || entry.Throws != 1 {
		t.Errorf("expected total 0 over 1 throw, got %d over %d", entry.Total, entry.Throws)
	}
}

func TestTreapStore_Ordering(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	players := []struct {
		id     string
		points []int
	}{
		{"player1", []int{20, 20}},
		{"player2", []int{60, 60}},
		{"player3", []int{5}},
		{"player4", []int{50, 50, 50}},
		{"player5", []int{25}},
	}
	for _, p := range players {
		for i, pts := range p.points {
			if err := store.AddPoints(ctx, p.id, fmt.Sprintf("%s-%d", p.id, i), pts); err != nil {
				t.Fatalf("unexpected error updating %s: %v", p.id, err)
			}
		}
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}

	expectedOrder := []string{"player4", "player2", "player1", "player5", "player3"}
	for i, expectedID := range expectedOrder {
		if entries[i].PlayerID != expectedID {
			t.Errorf("position %d: expected %s, got %s", i, expectedID, entries[i].PlayerID)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("position %d: expected rank %d, got %d", i, i+1, entries[i].Rank)
		}
	}
}

func TestTreapStore_TotalsMoveBothWays(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	_ = store.AddPoints(ctx, "a", "t1", 100)
	_ = store.AddPoints(ctx, "b", "t2", 50)

	if e, _ := store.Rank(ctx, "b"); e.Rank != 2 {
		t.Fatalf("expected b at rank 2, got %d", e.Rank)
	}

	_ = store.AddPoints(ctx, "b", "t3", 60)

	if e, _ := store.Rank(ctx, "b"); e.Rank != 1 || e.Total != 110 {
		t.Errorf("expected b to overtake with 110, got rank %d total %d", e.Rank, e.Total)
	}
	if e, _ := store.Rank(ctx, "a"); e.Rank != 2 {
		t.Errorf("expected a at rank 2, got %d", e.Rank)
	}
}

func TestTreapStore_Ties(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	_ = store.AddPoints(ctx, "playerB", "t1", 100)
	_ = store.AddPoints(ctx, "playerA", "t2", 100)
	_ = store.AddPoints(ctx, "playerC", "t3", 80)
	_ = store.AddPoints(ctx, "playerD", "t4", 120)

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		id   string
		rank int
	}{
		{"playerD", 1},
		{"playerA", 2},
		{"playerB", 2},
		{"playerC", 4},
	}
	for i, w := range want {
		if entries[i].PlayerID != w.id || entries[i].Rank != w.rank {
			t.Errorf("position %d: expected %s at rank %d, got %s at rank %d",
				i, w.id, w.rank, entries[i].PlayerID, entries[i].Rank)
		}
	}

	for _, w := range want {
		e, err := store.Rank(ctx, w.id)
		if err != nil {
			t.Fatalf("rank %s: %v", w.id, err)
		}
		if e.Rank != w.rank {
			t.Errorf("Rank(%s): expected %d, got %d", w.id, w.rank, e.Rank)
		}
	}
}

func TestTreapStore_RankMatchesTopN(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	r := rand.New(rand.NewSource(7))
	for i := range 2000 {
		player := fmt.Sprintf("player%d", r.Intn(300))
		if err := store.AddPoints(ctx, player, fmt.Sprintf("t%d", i), r.Intn(61)); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.TopN(ctx, store.Count(ctx))
	if err != nil {
		t.Fatal(err)
	}
	if !sort.SliceIsSorted(all, func(i, j int) bool { return less(all[i].Total, all[i].PlayerID, all[j].Total, all[j].PlayerID) }) {
		t.Fatal("TopN not in leaderboard order")
	}
	for _, e := range all {
		got, err := store.Rank(ctx, e.PlayerID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Rank != e.Rank {
			t.Fatalf("%s: Rank says %d, TopN says %d", e.PlayerID, got.Rank, e.Rank)
		}
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	const goroutines, perGoroutine = 10, 100

	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := range perGoroutine {
				player := fmt.Sprintf("player%d", i%20)
				if err := store.AddPoints(ctx, player, fmt.Sprintf("t-%d-%d", g, i), 3); err != nil {
					t.Errorf("goroutine %d: unexpected error: %v", g, err)
				}
			}
		}(g)
	}
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				_, _ = store.TopN(ctx, 5)
				_, _ = store.Rank(ctx, "player0")
			}
		}()
	}
	wg.Wait()

	if count := store.Count(ctx); count != 20 {
		t.Errorf("expected 20 players, got %d", count)
	}
	entries, _ := store.TopN(ctx, 20)
	sum := 0
	for _, e := range entries {
		sum += e.Total
	}
	if sum != goroutines*perGoroutine*3 {
		t.Errorf("expected %d points in total, got %d", goroutines*perGoroutine*3, sum)
	}
}

func TestTreapStore_EdgeCases(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	if _, err := store.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	if _, err := store.TopN(ctx, -1); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	if _, err := store.Rank(ctx, "nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.AddPoints(ctx, "", "t1", 10); !errors.Is(err, ErrInvalidPlayer) {
		t.Errorf("expected ErrInvalidPlayer, got %v", err)
	}
	if err := store.AddPoints(ctx, "p", "t1", -1); !errors.Is(err, ErrInvalidPoints) {
		t.Errorf("expected ErrInvalidPoints, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := store.AddPoints(cancelled, "p", "t1", 10); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected nothing stored, got %d players", count)
	}
}

func TestTreapStore_PeriodicSnapshots(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	store := NewTreapStore(ctx,
		WithSnapshotInterval(10*time.Millisecond),
		WithTopCacheSize(2),
		WithClock(func() time.Time { return fixed }),
	)
	defer store.Close()

	if snap := store.Snapshot(ctx); snap == nil || snap.Players != 0 {
		t.Fatalf("expected an empty initial snapshot, got %+v", snap)
	}

	_ = store.AddPoints(ctx, "user1", "t1", 100)
	_ = store.AddPoints(ctx, "user2", "t2", 200)
	_ = store.AddPoints(ctx, "user3", "t3", 150)

	deadline := time.Now().Add(time.Second)
	var snap *Snapshot
	for time.Now().Before(deadline) {
		snap = store.Snapshot(ctx)
		if snap.Players == 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if snap.Players != 3 {
		t.Fatalf("expected snapshot with 3 players, got %d", snap.Players)
	}
	if snap.TotalPoints != 450 || snap.TotalThrows != 3 {
		t.Errorf("expected 450 points over 3 throws, got %d over %d", snap.TotalPoints, snap.TotalThrows)
	}
	if len(snap.Top) != 2 {
		t.Fatalf("expected top cache of 2, got %d", len(snap.Top))
	}
	if snap.Top[0].PlayerID != "user2" || snap.Top[1].PlayerID != "user3" {
		t.Errorf("unexpected top cache: %+v", snap.Top)
	}
	if !snap.TakenAt.Equal(fixed) {
		t.Errorf("expected snapshot stamped %v, got %v", fixed, snap.TakenAt)
	}
}

func TestTreapStore_CloseIsIdempotent(t *testing.T) {
	store := NewTreapStore(context.Background())
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
}

func BenchmarkTreapStore_AddPoints(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			_ = store.AddPoints(ctx, fmt.Sprintf("player%d", r.Intn(100_000)), "t", r.Intn(61))
		}
	})
}

func BenchmarkTreapStore_Rank(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	for i := range 100_000 {
		_ = store.AddPoints(ctx, fmt.Sprintf("player%d", i), "t", i%181)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = store.Rank(ctx, fmt.Sprintf("player%d", i%100_000))
			i++
		}
	})
}
