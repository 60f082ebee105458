package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

// Integration tests against a real SQLite database in a temp directory.

func setupTestStore(t testing.TB) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "albums.db")
	s, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return s
}

func album(n int, score float64, createdAt time.Time) *SmartAlbum {
	return &SmartAlbum{
		ID:             fmt.Sprintf("album-%03d", n),
		Title:          fmt.Sprintf("Album %d", n),
		CreatedAt:      createdAt,
		RelevanceScore: score,
		Tags:           []string{"Hiking", "Forest"},
		AssetIDs:       []string{fmt.Sprintf("a%d-1", n), fmt.Sprintf("a%d-2", n), fmt.Sprintf("a%d-3", n)},
	}
}

func TestAppendAndReadBack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	want := album(1, 72.5, now)
	if err := s.AppendBatch(ctx, []*SmartAlbum{want}); err != nil {
		t.Fatalf("AppendBatch failed: %v", err)
	}

	albums, err := s.All(ctx, SortByCreated)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(albums) != 1 {
		t.Fatalf("expected 1 album, got %d", len(albums))
	}

	got := albums[0]
	if got.ID != want.ID || got.Title != want.Title {
		t.Errorf("got %s/%s, want %s/%s", got.ID, got.Title, want.ID, want.Title)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, now)
	}
	if got.RelevanceScore != 72.5 {
		t.Errorf("score = %v, want 72.5", got.RelevanceScore)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "Hiking" || got.Tags[1] != "Forest" {
		t.Errorf("tags = %v", got.Tags)
	}
	if len(got.AssetIDs) != 3 || got.AssetIDs[0] != "a1-1" {
		t.Errorf("assetIds = %v", got.AssetIDs)
	}
	if got.ThumbnailAssetID != "a1-1" {
		t.Errorf("thumbnail not repaired to first asset: %s", got.ThumbnailAssetID)
	}
}

func TestValidationSelfRepair(t *testing.T) {
	t.Run("repairs id title tags thumbnail", func(t *testing.T) {
		a := &SmartAlbum{AssetIDs: []string{"x", "y", "z"}, RelevanceScore: 150}
		if err := a.Validate(); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if a.ID == "" {
			t.Error("id not repaired")
		}
		if a.Title != DefaultTag {
			t.Errorf("title = %q", a.Title)
		}
		if len(a.Tags) != 1 || a.Tags[0] != DefaultTag {
			t.Errorf("tags = %v", a.Tags)
		}
		if a.ThumbnailAssetID != "x" {
			t.Errorf("thumbnail = %q", a.ThumbnailAssetID)
		}
		if a.RelevanceScore != 100 {
			t.Errorf("score not clamped: %v", a.RelevanceScore)
		}
	})

	t.Run("empty assets cannot be repaired", func(t *testing.T) {
		a := &SmartAlbum{Title: "Empty"}
		if err := a.Validate(); !errors.Is(err, ErrNoAssets) {
			t.Errorf("expected ErrNoAssets, got %v", err)
		}
	})
}

func TestSortOrders(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	batch := []*SmartAlbum{
		album(1, 30, base.Add(3*time.Minute)),
		album(2, 90, base.Add(1*time.Minute)),
		album(3, 60, base.Add(2*time.Minute)),
	}
	if err := s.AppendBatch(ctx, batch); err != nil {
		t.Fatalf("AppendBatch failed: %v", err)
	}

	byCreated, err := s.All(ctx, SortByCreated)
	if err != nil {
		t.Fatal(err)
	}
	if byCreated[0].ID != "album-001" || byCreated[2].ID != "album-002" {
		t.Errorf("created order wrong: %s, %s, %s", byCreated[0].ID, byCreated[1].ID, byCreated[2].ID)
	}

	byScore, err := s.All(ctx, SortByScore)
	if err != nil {
		t.Fatal(err)
	}
	if byScore[0].ID != "album-002" || byScore[2].ID != "album-001" {
		t.Errorf("score order wrong: %s, %s, %s", byScore[0].ID, byScore[1].ID, byScore[2].ID)
	}
}

func TestReplaceAllDropsOldAlbums(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	old := make([]*SmartAlbum, 0, 10)
	for i := 0; i < 10; i++ {
		old = append(old, album(i, float64(i*10), time.Now()))
	}
	if err := s.AppendBatch(ctx, old); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	fresh := []*SmartAlbum{album(100, 80, time.Now()), album(101, 70, time.Now())}
	if err := s.ReplaceAll(ctx, fresh); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	albums, err := s.All(ctx, SortByCreated)
	if err != nil {
		t.Fatal(err)
	}
	if len(albums) != 2 {
		t.Fatalf("expected 2 albums after replace, got %d", len(albums))
	}
	for _, a := range albums {
		if a.ID != "album-100" && a.ID != "album-101" {
			t.Errorf("old album survived: %s", a.ID)
		}
	}

	count, err := s.Count(ctx)
	if err != nil || count != 2 {
		t.Errorf("Count = %d, %v", count, err)
	}
}

func TestAppendBatchFailureLeavesEarlierBatches(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.AppendBatch(ctx, []*SmartAlbum{album(1, 50, time.Now())}); err != nil {
		t.Fatalf("first batch failed: %v", err)
	}

	// Duplicate primary key in the second batch forces a rollback.
	bad := []*SmartAlbum{album(2, 60, time.Now()), album(1, 70, time.Now())}
	if err := s.AppendBatch(ctx, bad); err == nil {
		t.Fatal("expected duplicate-id batch to fail")
	}

	albums, err := s.All(ctx, SortByCreated)
	if err != nil {
		t.Fatal(err)
	}
	if len(albums) != 1 || albums[0].ID != "album-001" {
		t.Errorf("first batch corrupted: %v", albums)
	}
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.AppendBatch(ctx, []*SmartAlbum{album(1, 50, time.Now()), album(2, 60, time.Now())}); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, "album-001"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "no-such-album"); err != nil {
		t.Errorf("deleting unknown id errored: %v", err)
	}

	albums, err := s.All(ctx, SortByCreated)
	if err != nil {
		t.Fatal(err)
	}
	if len(albums) != 1 || albums[0].ID != "album-002" {
		t.Errorf("unexpected albums after delete: %v", albums)
	}

	// Cascade removed the child rows too.
	var tags int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM album_tags WHERE album_id = 'album-001'").Scan(&tags); err != nil {
		t.Fatal(err)
	}
	if tags != 0 {
		t.Errorf("orphaned tag rows: %d", tags)
	}
}

func TestFeatured(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	now := time.Now()
	stale := now.Add(-60 * 24 * time.Hour)

	batch := []*SmartAlbum{
		album(1, 95, stale), // old, best score overall
		album(2, 40, now),
		album(3, 55, now),
		album(4, 20, now),
	}
	if err := s.AppendBatch(ctx, batch); err != nil {
		t.Fatal(err)
	}

	featured, err := s.Featured(ctx)
	if err != nil {
		t.Fatalf("Featured failed: %v", err)
	}
	if len(featured) != 4 {
		t.Fatalf("expected 4 featured albums, got %d", len(featured))
	}
	// Three recent albums plus the old one topping up, re-sorted by score.
	if featured[0].ID != "album-001" {
		t.Errorf("top-up album not first by score: %s", featured[0].ID)
	}

	t.Run("caps at five recent", func(t *testing.T) {
		more := make([]*SmartAlbum, 0, 4)
		for i := 10; i < 14; i++ {
			more = append(more, album(i, float64(50+i), now))
		}
		if err := s.AppendBatch(ctx, more); err != nil {
			t.Fatal(err)
		}

		featured, err := s.Featured(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(featured) != 5 {
			t.Fatalf("expected 5 featured albums, got %d", len(featured))
		}
		for _, a := range featured {
			if a.ID == "album-001" {
				t.Error("old album featured despite five recent candidates")
			}
		}
	})
}

func TestResolverPrunesStaleReferences(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := album(1, 50, time.Now())
	a.ThumbnailAssetID = "a1-1"
	if err := s.AppendBatch(ctx, []*SmartAlbum{a}); err != nil {
		t.Fatal(err)
	}

	// a1-1 vanished from the library.
	s.SetResolver(func(assetID string) bool { return assetID != "a1-1" })

	albums, err := s.All(ctx, SortByCreated)
	if err != nil {
		t.Fatal(err)
	}
	got := albums[0]
	if len(got.AssetIDs) != 2 {
		t.Errorf("stale asset not pruned: %v", got.AssetIDs)
	}
	if got.ThumbnailAssetID != "a1-2" {
		t.Errorf("thumbnail not repaired: %s", got.ThumbnailAssetID)
	}

	t.Run("fully stale album hidden", func(t *testing.T) {
		s.SetResolver(func(string) bool { return false })
		albums, err := s.All(ctx, SortByCreated)
		if err != nil {
			t.Fatal(err)
		}
		if len(albums) != 0 {
			t.Errorf("expected no readable albums, got %d", len(albums))
		}
	})
}

func TestMetadata(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.GetMetadata(ctx, "library_hash"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows for missing key, got %v", err)
	}

	if err := s.SetMetadata(ctx, "library_hash", "1200-1718370000"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMetadata(ctx, "library_hash", "1201-1718380000"); err != nil {
		t.Fatal(err)
	}

	value, err := s.GetMetadata(ctx, "library_hash")
	if err != nil {
		t.Fatal(err)
	}
	if value != "1201-1718380000" {
		t.Errorf("got %q", value)
	}

	t.Run("timestamps round-trip", func(t *testing.T) {
		when := time.Now().Truncate(time.Second)
		if err := s.SetMetadataTime(ctx, "last_update", when); err != nil {
			t.Fatal(err)
		}
		got, err := s.GetMetadataTime(ctx, "last_update")
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(when) {
			t.Errorf("got %v, want %v", got, when)
		}

		missing, err := s.GetMetadataTime(ctx, "never_set")
		if err != nil || !missing.IsZero() {
			t.Errorf("missing key: %v, %v", missing, err)
		}
	})
}
