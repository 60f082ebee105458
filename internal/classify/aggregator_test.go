package classify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"album-engine/internal/cluster"
	"album-engine/internal/library"
)

// fakeClassifier returns canned results per asset ID, or fall-through
// defaults for unknown IDs.
type fakeClassifier struct {
	perAsset map[string][]Result
	defaults []Result
	err      error
	calls    int
}

func (f *fakeClassifier) Classify(ctx context.Context, asset library.AssetMetadata) ([]Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.perAsset[asset.AssetID]; ok {
		return r, nil
	}
	return f.defaults, nil
}

func testCluster(n int) cluster.Cluster {
	base := time.Date(2025, time.June, 14, 14, 0, 0, 0, time.UTC)
	assets := make([]library.AssetMetadata, n)
	for i := range assets {
		assets[i] = library.AssetMetadata{
			AssetID:     fmt.Sprintf("asset-%03d", i),
			CaptureTime: base.Add(time.Duration(i) * 5 * time.Minute),
			MediaType:   library.MediaTypeImage,
			PixelWidth:  4032,
			PixelHeight: 2268,
		}
	}
	return cluster.Cluster{Assets: assets}
}

func TestSampleAssets(t *testing.T) {
	t.Run("large cluster picks first middle last", func(t *testing.T) {
		c := testCluster(12)
		samples := sampleAssets(c)
		if len(samples) != 3 {
			t.Fatalf("expected 3 samples, got %d", len(samples))
		}
		want := []string{"asset-000", "asset-006", "asset-011"}
		for i, s := range samples {
			if s.AssetID != want[i] {
				t.Errorf("sample %d = %s, want %s", i, s.AssetID, want[i])
			}
		}
	})

	t.Run("small cluster yields fewer samples without duplicates", func(t *testing.T) {
		for n := 0; n <= 3; n++ {
			samples := sampleAssets(testCluster(n))
			if len(samples) != n {
				t.Errorf("cluster of %d: got %d samples", n, len(samples))
			}
			seen := make(map[string]bool)
			for _, s := range samples {
				if seen[s.AssetID] {
					t.Errorf("cluster of %d: duplicate sample %s", n, s.AssetID)
				}
				seen[s.AssetID] = true
			}
		}
	})
}

func TestAggregateCombinesSamples(t *testing.T) {
	fc := &fakeClassifier{
		perAsset: map[string][]Result{
			"asset-000": {{Label: "Beach", Confidence: 0.9}, {Label: "Sunset", Confidence: 0.5}},
			"asset-006": {{Label: "Beach", Confidence: 0.8}, {Label: "Photo", Confidence: 0.7}},
			"asset-011": {{Label: "Sunset", Confidence: 0.6}},
		},
	}
	agg := NewAggregator(fc, NewHeuristicTagger(nil))

	got := agg.Aggregate(context.Background(), testCluster(12))
	if len(got) != 2 {
		t.Fatalf("expected 2 labels, got %v", got)
	}
	if got[0].Label != "Beach" || got[1].Label != "Sunset" {
		t.Errorf("unexpected order: %v", got)
	}
	if got[0].Confidence != 1.7 {
		t.Errorf("Beach confidence = %v, want 1.7", got[0].Confidence)
	}
	if fc.calls != 3 {
		t.Errorf("classifier called %d times, want 3", fc.calls)
	}
}

func TestAggregateFallsBackWhenAllSentinel(t *testing.T) {
	sentinel := []Result{{Label: "Photo", Confidence: 0.5}, {Label: "Image", Confidence: 0.5}}
	fc := &fakeClassifier{defaults: sentinel}
	agg := NewAggregator(fc, NewHeuristicTagger(nil))

	got := agg.Aggregate(context.Background(), testCluster(12))
	if len(got) == 0 {
		t.Fatal("expected non-empty fallback tags")
	}
	for _, r := range got {
		if r.Confidence != 0 {
			t.Errorf("fallback tag %q carries confidence %v, want 0", r.Label, r.Confidence)
		}
	}
	// 14:00 in June.
	labels := Labels(got)
	if labels[0] != "Afternoon" || labels[1] != "Summer" {
		t.Errorf("unexpected fallback tags: %v", labels)
	}
}

func TestAggregateFallsBackOnErrors(t *testing.T) {
	fc := &fakeClassifier{err: errors.New("model offline")}
	agg := NewAggregator(fc, NewHeuristicTagger(nil))

	got := agg.Aggregate(context.Background(), testCluster(5))
	if len(got) == 0 {
		t.Fatal("expected fallback tags on classifier error")
	}
}

func TestAggregatePartialFailureUsesRealResults(t *testing.T) {
	fc := &fakeClassifier{
		perAsset: map[string][]Result{
			"asset-000": nil, // empty counts as failed
			"asset-006": {{Label: "Hiking", Confidence: 0.7}},
			"asset-011": {{Label: "Photo", Confidence: 0.9}, {Label: "Image", Confidence: 0.8}},
		},
	}
	agg := NewAggregator(fc, NewHeuristicTagger(nil))

	got := agg.Aggregate(context.Background(), testCluster(12))
	if len(got) != 1 || got[0].Label != "Hiking" {
		t.Fatalf("expected single Hiking label, got %v", got)
	}
}

func TestCombine(t *testing.T) {
	t.Run("filters generic labels and caps at five", func(t *testing.T) {
		in := [][]Result{{
			{Label: "Photo", Confidence: 5},
			{Label: "Beach", Confidence: 0.9},
			{Label: "Sunset", Confidence: 0.8},
			{Label: "Ocean", Confidence: 0.7},
			{Label: "Friends", Confidence: 0.6},
			{Label: "Sand", Confidence: 0.5},
			{Label: "Waves", Confidence: 0.4},
		}}
		got := combine(in)
		if len(got) != 5 {
			t.Fatalf("expected 5 labels, got %d: %v", len(got), got)
		}
		for _, r := range got {
			if r.Label == "Photo" {
				t.Error("generic label survived filtering")
			}
		}
	})

	t.Run("keeps top three unfiltered when filtering empties", func(t *testing.T) {
		in := [][]Result{{
			{Label: "Photo", Confidence: 0.9},
			{Label: "Image", Confidence: 0.8},
			{Label: "Picture", Confidence: 0.7},
			{Label: "Snapshot", Confidence: 0.6},
		}}
		got := combine(in)
		if len(got) != 3 {
			t.Fatalf("expected 3 unfiltered labels, got %v", got)
		}
		if got[0].Label != "Photo" {
			t.Errorf("expected highest-confidence label first, got %v", got)
		}
	})

	t.Run("order independent", func(t *testing.T) {
		samples := [][]Result{
			{{Label: "Beach", Confidence: 0.9}, {Label: "Sunset", Confidence: 0.5}},
			{{Label: "Sunset", Confidence: 0.6}, {Label: "Ocean", Confidence: 0.4}},
			{{Label: "Beach", Confidence: 0.3}},
		}
		want := combine(samples)

		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 10; i++ {
			shuffled := make([][]Result, len(samples))
			copy(shuffled, samples)
			rng.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})
			if got := combine(shuffled); !reflect.DeepEqual(got, want) {
				t.Fatalf("combine depends on sample order: %v vs %v", got, want)
			}
		}
	})

	t.Run("equal confidence ties break by label", func(t *testing.T) {
		in := [][]Result{{
			{Label: "Zebra", Confidence: 0.5},
			{Label: "Alps", Confidence: 0.5},
		}}
		got := combine(in)
		if got[0].Label != "Alps" {
			t.Errorf("expected label-order tiebreak, got %v", got)
		}
	})
}

func TestIsFailure(t *testing.T) {
	cases := []struct {
		name    string
		results []Result
		err     error
		want    bool
	}{
		{"error", nil, errors.New("x"), true},
		{"empty", nil, nil, true},
		{"sentinel pair", []Result{{Label: "Photo"}, {Label: "Image"}}, nil, true},
		{"sentinel pair reversed", []Result{{Label: "Image"}, {Label: "Photo"}}, nil, true},
		{"real labels", []Result{{Label: "Beach"}, {Label: "Sunset"}}, nil, false},
		{"single photo label", []Result{{Label: "Photo"}}, nil, false},
		{"pair with one real label", []Result{{Label: "Photo"}, {Label: "Beach"}}, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isFailure(tc.results, tc.err); got != tc.want {
				t.Errorf("isFailure = %v, want %v", got, tc.want)
			}
		})
	}
}
