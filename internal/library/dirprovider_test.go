package library

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

func TestDirProviderScan(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "beach.png"), 40, 30)
	writePNG(t, filepath.Join(dir, "Screenshot_2024.png"), 100, 200)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewDirProvider(dir)
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	ctx := context.Background()

	count, err := p.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 assets (txt skipped), got %d", count)
	}

	t.Run("Image dimensions extracted", func(t *testing.T) {
		assets, err := p.Assets(ctx, Filter{MediaTypes: []MediaType{MediaTypeImage}})
		if err != nil {
			t.Fatal(err)
		}
		for _, a := range assets {
			if a.ID == "beach.png" {
				if a.PixelWidth != 40 || a.PixelHeight != 30 {
					t.Errorf("expected 40x30, got %dx%d", a.PixelWidth, a.PixelHeight)
				}
				return
			}
		}
		t.Error("beach.png not found")
	})

	t.Run("Screenshot flagged by name", func(t *testing.T) {
		assets, _ := p.Assets(ctx, Filter{})
		for _, a := range assets {
			if a.ID == "Screenshot_2024.png" && !a.IsScreenshot {
				t.Error("expected screenshot flag")
			}
		}
	})

	t.Run("Video typed by extension", func(t *testing.T) {
		assets, _ := p.Assets(ctx, Filter{MediaTypes: []MediaType{MediaTypeVideo}})
		if len(assets) != 1 || assets[0].ID != "clip.mp4" {
			t.Errorf("expected single video clip.mp4, got %v", assets)
		}
	})

	t.Run("Resolve and open", func(t *testing.T) {
		if !p.Resolve("beach.png") {
			t.Error("beach.png should resolve")
		}
		if p.Resolve("gone.png") {
			t.Error("missing asset should not resolve")
		}
		rc, err := p.Open(ctx, "beach.png")
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		rc.Close()
	})
}

func TestDirProviderSortAndLimit(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "old.png")
	recent := filepath.Join(dir, "recent.png")
	writePNG(t, old, 10, 10)
	writePNG(t, recent, 10, 10)

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	p := NewDirProvider(dir)
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	assets, err := p.Assets(context.Background(), Filter{SortByCaptureTime: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(assets))
	}
	if assets[0].ID != "old.png" {
		t.Errorf("expected old.png first, got %s", assets[0].ID)
	}

	limited, _ := p.Assets(context.Background(), Filter{SortByCaptureTime: true, Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected limit of 1, got %d", len(limited))
	}

	newest, err := p.NewestCaptureTime(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !newest.After(past) {
		t.Error("newest capture time should be the recent file")
	}
}

func TestDirProviderChangeNotification(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 10, 10)

	p := NewDirProvider(dir)
	p.SetPollInterval(20 * time.Millisecond)
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	notified := make(chan struct{}, 1)
	p.Subscribe(func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})

	// Adding a file changes the root directory mtime and entry count.
	time.Sleep(10 * time.Millisecond)
	writePNG(t, filepath.Join(dir, "b.png"), 10, 10)

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("expected change notification")
	}

	if count, _ := p.Count(context.Background()); count != 2 {
		t.Errorf("expected rescan to pick up 2 assets, got %d", count)
	}
}

func TestBurstIDFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"IMG_BURST20240115_003.jpg", "20240115"},
		{"burst42.png", "42"},
		{"IMG_1234.jpg", ""},
		{"BURSTonly.jpg", ""},
	}
	for _, tt := range tests {
		if got := burstIDFromName(tt.name); got != tt.want {
			t.Errorf("burstIDFromName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
