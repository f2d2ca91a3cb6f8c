package embedding

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/fall-development-rob/hackathon-tv5-sub003/cache"
	"github.com/fall-development-rob/hackathon-tv5-sub003/core"
)

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	g := NewGenerator(nil, cache.New[string, []float64](100))
	// Fixed clock keeps recency components deterministic.
	g.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	return g
}

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func TestEmbedContent_NormalizedAndFixedLength(t *testing.T) {
	g := testGenerator(t)

	tests := []struct {
		name    string
		content *core.Content
	}{
		{
			name: "full metadata",
			content: &core.Content{
				ID:          "603",
				Title:       "The Matrix",
				MediaType:   core.MediaTypeMovie,
				GenreIDs:    []int{28, 878},
				Popularity:  85,
				VoteAverage: 8.2,
				ReleaseDate: time.Date(1999, 3, 31, 0, 0, 0, 0, time.UTC),
				Runtime:     136,
				Overview:    "A computer hacker learns about the true nature of reality",
			},
		},
		{
			name:    "sparse content falls back everywhere",
			content: &core.Content{ID: "x", MediaType: core.MediaTypeOther},
		},
		{
			name: "unknown genres use default vector",
			content: &core.Content{
				ID:        "y",
				MediaType: core.MediaTypeTV,
				GenreIDs:  []int{424242},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := g.EmbedContent(context.Background(), tt.content)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(v) != g.Dim() {
				t.Fatalf("dim = %d, want %d", len(v), g.Dim())
			}
			if math.Abs(norm(v)-1) > 1e-9 {
				t.Errorf("norm = %v, want 1", norm(v))
			}
			for i, x := range v {
				if math.IsNaN(x) {
					t.Fatalf("component %d is NaN", i)
				}
			}
		})
	}
}

func TestEmbedContent_NilContentIsUnavailable(t *testing.T) {
	g := testGenerator(t)
	v, err := g.EmbedContent(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != nil {
		t.Errorf("got %v, want nil", v)
	}
}

func TestEmbedContent_Deterministic(t *testing.T) {
	g := testGenerator(t)
	c := &core.Content{ID: "603", MediaType: core.MediaTypeMovie, GenreIDs: []int{28}}

	a, _ := g.EmbedContent(context.Background(), c)
	b, _ := g.EmbedContent(context.Background(), c)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("component %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEmbedContent_Memoized(t *testing.T) {
	memo := cache.New[string, []float64](100)
	g := NewGenerator(nil, memo)
	c := &core.Content{ID: "603", MediaType: core.MediaTypeMovie}

	g.EmbedContent(context.Background(), c)
	g.EmbedContent(context.Background(), c)
	g.EmbedContent(context.Background(), c)

	stats := memo.GetStats()
	if stats.Misses != 1 {
		t.Errorf("misses = %d, want 1", stats.Misses)
	}
	if stats.Hits != 2 {
		t.Errorf("hits = %d, want 2", stats.Hits)
	}
}

func TestEmbedContent_CachedVectorNotAliased(t *testing.T) {
	g := testGenerator(t)
	c := &core.Content{ID: "603", MediaType: core.MediaTypeMovie}

	a, _ := g.EmbedContent(context.Background(), c)
	a[0] = 999 // caller mutates its copy
	b, _ := g.EmbedContent(context.Background(), c)
	if b[0] == 999 {
		t.Error("cache returned an aliased slice")
	}
}

func TestEmbedContent_GenresShiftVector(t *testing.T) {
	g := testGenerator(t)
	action := &core.Content{ID: "1", MediaType: core.MediaTypeMovie, GenreIDs: []int{28}}
	romance := &core.Content{ID: "2", MediaType: core.MediaTypeMovie, GenreIDs: []int{10749}}

	a, _ := g.EmbedContent(context.Background(), action)
	b, _ := g.EmbedContent(context.Background(), romance)

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different genres produced identical vectors")
	}
}

func TestEmbedPreferences(t *testing.T) {
	g := testGenerator(t)

	t.Run("cold start still embeds", func(t *testing.T) {
		p := core.NewPreferenceProfile("u1")
		v, err := g.EmbedPreferences(context.Background(), p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(v) != g.Dim() {
			t.Fatalf("dim = %d, want %d", len(v), g.Dim())
		}
		if math.Abs(norm(v)-1) > 1e-9 {
			t.Errorf("norm = %v, want 1", norm(v))
		}
	})

	t.Run("affinities move the vector", func(t *testing.T) {
		cold := core.NewPreferenceProfile("u1")
		horror := core.NewPreferenceProfile("u2")
		horror.GenreAffinities[27] = 0.95

		a, _ := g.EmbedPreferences(context.Background(), cold)
		b, _ := g.EmbedPreferences(context.Background(), horror)
		same := true
		for i := range a {
			if a[i] != b[i] {
				same = false
				break
			}
		}
		if same {
			t.Error("affinities did not change the preference vector")
		}
	})
}

func TestEmbedQueryState(t *testing.T) {
	g := testGenerator(t)

	v, err := g.EmbedQueryState(context.Background(), "mind bending science fiction heist", map[string]any{
		"media_type": "movie",
		"genre_ids":  []int{878, 53},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(norm(v)-1) > 1e-9 {
		t.Errorf("norm = %v, want 1", norm(v))
	}

	// Empty text with no state still yields a valid normalized vector
	// (default genre + neutral metadata keep it nonzero).
	v2, err := g.EmbedText(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(norm(v2)-1) > 1e-9 {
		t.Errorf("empty query norm = %v, want 1", norm(v2))
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "lowercase strip punctuation drop short",
			in:   "The Quick, Brown Fox!",
			want: []string{"quick", "brown"},
		},
		{
			name: "empty",
			in:   "",
			want: nil,
		},
		{
			name: "all short tokens",
			in:   "a an the of to",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHashToken(t *testing.T) {
	if h := hashToken("matrix"); h < 0 {
		t.Errorf("hash must be non-negative, got %d", h)
	}
	if hashToken("matrix") != hashToken("matrix") {
		t.Error("hash must be stable")
	}
}

func TestKeywordBuckets(t *testing.T) {
	buckets := keywordBuckets("space space station", 38)
	var sum float64
	for _, b := range buckets {
		sum += b
	}
	// Three tokens, counts normalized by token count: bucket mass sums to 1.
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("bucket mass = %v, want 1", sum)
	}

	empty := keywordBuckets("", 38)
	for i, b := range empty {
		if b != 0 {
			t.Errorf("bucket %d = %v, want 0 for empty text", i, b)
		}
	}
}
