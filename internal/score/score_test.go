package score

import (
	"strings"
	"testing"
	"time"
)

func TestRelevance(t *testing.T) {
	t.Run("all components capped", func(t *testing.T) {
		tags := []string{"Wedding", "Beach", "Sunset", "Friends", "Dancing"}
		got := Relevance(tags, 1.0, 1000)
		if got != 100 {
			t.Errorf("got %v, want 100", got)
		}
	})

	t.Run("empty tags reduce to count component", func(t *testing.T) {
		got := Relevance(nil, 0, 20)
		if got != 10 {
			t.Errorf("got %v, want 10", got)
		}
	})

	t.Run("confidence component capped at 30", func(t *testing.T) {
		withCap := Relevance(nil, 1.0, 0)
		if withCap != 30 {
			t.Errorf("got %v, want 30", withCap)
		}
	})

	t.Run("tag component counts unique case-insensitive tags", func(t *testing.T) {
		same := Relevance([]string{"Beach", "beach", " BEACH "}, 0, 0)
		one := Relevance([]string{"Beach"}, 0, 0)
		if same != one {
			t.Errorf("duplicate tags scored differently: %v vs %v", same, one)
		}
		if one != 8 {
			t.Errorf("single tag = %v, want 8", one)
		}
	})

	t.Run("special keyword bonus", func(t *testing.T) {
		plain := Relevance([]string{"Beach"}, 0.5, 10)
		special := Relevance([]string{"Birthday Party"}, 0.5, 10)
		if special != plain+15 {
			t.Errorf("special %v, plain %v, want +15", special, plain)
		}
	})

	t.Run("bounds hold for extreme inputs", func(t *testing.T) {
		cases := []struct {
			tags  []string
			conf  float64
			count int
		}{
			{nil, 0, 0},
			{nil, -5, -100},
			{[]string{"Wedding", "a", "b", "c", "d", "e", "f"}, 99, 1 << 30},
			{make([]string, 1000), 1, 1},
		}
		for _, tc := range cases {
			got := Relevance(tc.tags, tc.conf, tc.count)
			if got < 0 || got > 100 {
				t.Errorf("Relevance(%v, %v, %v) = %v out of range", tc.tags, tc.conf, tc.count, got)
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		tags := []string{"Hiking", "Forest"}
		a := Relevance(tags, 0.73, 17)
		b := Relevance(tags, 0.73, 17)
		if a != b {
			t.Errorf("same inputs scored %v and %v", a, b)
		}
	})
}

// fixedTitler always picks the first template so assertions are stable.
func fixedTitler() *Titler {
	return &Titler{pick: func(n int) int { return 0 }}
}

func TestTitlerSpecificityOrder(t *testing.T) {
	date := time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)
	full := TitleContext{
		Location:  "Helsinki",
		TimeOfDay: "Afternoon",
		Date:      date,
		Count:     12,
		Tags:      []string{"Hiking"},
	}

	cases := []struct {
		name string
		ctx  TitleContext
		want string
	}{
		{"tags and location", full, "Hiking in Helsinki"},
		{"tags only", TitleContext{Tags: []string{"Hiking"}, Count: 12}, "Hiking"},
		{"location and time", TitleContext{Location: "Helsinki", TimeOfDay: "Afternoon", Count: 12}, "Afternoon in Helsinki"},
		{"location only", TitleContext{Location: "Helsinki", Count: 12}, "Memories from Helsinki"},
		{"time only", TitleContext{TimeOfDay: "Evening", Count: 12}, "Evening Memories"},
		{"date only", TitleContext{Date: date, Count: 12}, "June 2025"},
		{"nothing known", TitleContext{Count: 12}, "Photos"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := fixedTitler().Title(tc.ctx); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTitlerSingularizes(t *testing.T) {
	cases := []struct {
		ctx  TitleContext
		want string
	}{
		{TitleContext{Count: 1}, "Photo"},
		{TitleContext{TimeOfDay: "Evening", Count: 1}, "Evening Memory"},
		{TitleContext{Tags: []string{"Screenshots"}, Count: 1}, "Screenshot"},
	}
	for _, tc := range cases {
		if got := fixedTitler().Title(tc.ctx); got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
	}
}

func TestTitlerNeverEmpty(t *testing.T) {
	contexts := []TitleContext{
		{},
		{Count: 1},
		{Tags: []string{""}},
		{Location: "", TimeOfDay: "", Tags: nil},
	}
	titler := NewTitler()
	for _, ctx := range contexts {
		if got := titler.Title(ctx); strings.TrimSpace(got) == "" {
			t.Errorf("empty title for %+v", ctx)
		}
	}
}

func TestTitlerStripsUnresolvedPlaceholders(t *testing.T) {
	// An empty tag string is "present" as a list but resolves to nothing;
	// the placeholder residue must not leak into the title.
	got := fixedTitler().Title(TitleContext{Tags: []string{""}, Location: "Helsinki", Count: 3})
	if strings.Contains(got, "{") || strings.Contains(got, "}") {
		t.Errorf("placeholder leaked: %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("double space left after stripping: %q", got)
	}
}

func TestTitlerRandomChoiceStaysWithinTier(t *testing.T) {
	ctx := TitleContext{Tags: []string{"Hiking"}, Location: "Helsinki", Count: 5}
	titler := NewTitler()
	allowed := map[string]bool{
		"Hiking in Helsinki": true,
		"Hiking at Helsinki": true,
	}
	for i := 0; i < 50; i++ {
		if got := titler.Title(ctx); !allowed[got] {
			t.Fatalf("title %q outside the eligible tier", got)
		}
	}
}
