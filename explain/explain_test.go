package explain

import (
	"math"
	"strings"
	"testing"
)

func TestAnalyzeContribution(t *testing.T) {
	g := NewGenerator()

	tests := []struct {
		name        string
		strategy    string
		score       float64
		wantReasons []string
	}{
		{
			name:        "collaborative",
			strategy:    "collaborative-filtering",
			score:       0.8,
			wantReasons: []string{ReasonSimilarTaste},
		},
		{
			name:        "content splits into genre and actor",
			strategy:    "content-based",
			score:       0.9,
			wantReasons: []string{ReasonGenre, ReasonActor},
		},
		{
			name:        "trending",
			strategy:    "trending",
			score:       0.6,
			wantReasons: []string{ReasonTrending},
		},
		{
			name:        "unknown falls back to generic",
			strategy:    "quantum-sort",
			score:       0.5,
			wantReasons: []string{ReasonGeneric},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.AnalyzeContribution(tt.strategy, tt.score, nil)
			if len(got) != len(tt.wantReasons) {
				t.Fatalf("got %d factors, want %d", len(got), len(tt.wantReasons))
			}
			for i, f := range got {
				if f.Reason != tt.wantReasons[i] {
					t.Errorf("factor %d reason = %q, want %q", i, f.Reason, tt.wantReasons[i])
				}
				if f.Weight < 0 || f.Weight > 1 {
					t.Errorf("factor %d weight %v out of [0,1]", i, f.Weight)
				}
			}
		})
	}
}

func TestAnalyzeContribution_WeightClamped(t *testing.T) {
	g := NewGenerator()
	if got := g.AnalyzeContribution("trending", 3.5, nil)[0].Weight; got != 1 {
		t.Errorf("weight = %v, want 1", got)
	}
	if got := g.AnalyzeContribution("trending", -2, nil)[0].Weight; got != 0 {
		t.Errorf("weight = %v, want 0", got)
	}
}

func TestAggregate(t *testing.T) {
	g := NewGenerator()

	t.Run("merges duplicates averaging weight", func(t *testing.T) {
		got := g.Aggregate([]Factor{
			{Reason: ReasonGenre, Weight: 0.8, Detail: "short", RelatedIDs: []string{"a"}},
			{Reason: ReasonGenre, Weight: 0.4, Detail: "much longer detail", RelatedIDs: []string{"b", "a"}},
		})
		if len(got) != 1 {
			t.Fatalf("got %d factors, want 1", len(got))
		}
		if math.Abs(got[0].Weight-0.6) > 1e-9 {
			t.Errorf("weight = %v, want 0.6", got[0].Weight)
		}
		if got[0].Detail != "much longer detail" {
			t.Errorf("detail = %q, want the most detailed text", got[0].Detail)
		}
		if len(got[0].RelatedIDs) != 2 {
			t.Errorf("related ids = %v, want union of 2", got[0].RelatedIDs)
		}
	})

	t.Run("drops below min weight", func(t *testing.T) {
		got := g.Aggregate([]Factor{
			{Reason: ReasonGenre, Weight: 0.05},
			{Reason: ReasonRating, Weight: 0.5},
		})
		if len(got) != 1 || got[0].Reason != ReasonRating {
			t.Errorf("got %v, want only the rating factor", got)
		}
	})

	t.Run("sorts by weight with priority tie-break", func(t *testing.T) {
		got := g.Aggregate([]Factor{
			{Reason: ReasonTrending, Weight: 0.5},
			{Reason: ReasonSimilarTaste, Weight: 0.5},
			{Reason: ReasonRating, Weight: 0.9},
		})
		if got[0].Reason != ReasonRating {
			t.Errorf("first = %q, want highest weight", got[0].Reason)
		}
		// Equal weights: similar-to-watched outranks trending.
		if got[1].Reason != ReasonSimilarTaste || got[2].Reason != ReasonTrending {
			t.Errorf("tie-break order = %q,%q", got[1].Reason, got[2].Reason)
		}
	})

	t.Run("truncates to max factors", func(t *testing.T) {
		got := g.Aggregate([]Factor{
			{Reason: ReasonGenre, Weight: 0.9},
			{Reason: ReasonActor, Weight: 0.8},
			{Reason: ReasonRating, Weight: 0.7},
			{Reason: ReasonTrending, Weight: 0.6},
		})
		if len(got) != 3 {
			t.Errorf("got %d factors, want 3", len(got))
		}
	})
}

func TestToNaturalLanguage(t *testing.T) {
	g := NewGenerator()

	t.Run("empty yields default sentence", func(t *testing.T) {
		got := g.ToNaturalLanguage(nil)
		if got != "Recommended for you based on your viewing history." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("single factor", func(t *testing.T) {
		got := g.ToNaturalLanguage([]Factor{{Reason: ReasonGenre, Weight: 0.9}})
		if !strings.HasPrefix(got, "Because it matches your favorite genres") {
			t.Errorf("got %q", got)
		}
	})

	t.Run("primary names first related content", func(t *testing.T) {
		got := g.ToNaturalLanguage([]Factor{{Reason: ReasonSimilarTaste, Weight: 0.9, RelatedIDs: []string{"Inception", "Tenet"}}})
		if !strings.Contains(got, "Inception") {
			t.Errorf("got %q, want it to mention Inception", got)
		}
		if strings.Contains(got, "Tenet") {
			t.Errorf("got %q, only the first related item should be named", got)
		}
	})

	t.Run("extra factors joined with comma and and", func(t *testing.T) {
		got := g.ToNaturalLanguage([]Factor{
			{Reason: ReasonGenre, Weight: 0.9},
			{Reason: ReasonRating, Weight: 0.8},
			{Reason: ReasonNewRelease, Weight: 0.7},
		})
		if !strings.Contains(got, ", it's highly rated and it just came out.") {
			t.Errorf("got %q", got)
		}
	})
}

func TestConfidence(t *testing.T) {
	g := NewGenerator()

	t.Run("empty input is the documented 0.5 exception", func(t *testing.T) {
		if got := g.Confidence(nil); got != 0.5 {
			t.Errorf("got %v, want 0.5", got)
		}
	})

	t.Run("bounded for any nonempty input", func(t *testing.T) {
		inputs := [][]Factor{
			{{Reason: ReasonGenre, Weight: 0.01}},
			{{Reason: ReasonGenre, Weight: 1}, {Reason: ReasonActor, Weight: 1}, {Reason: ReasonRating, Weight: 1}, {Reason: ReasonSocial, Weight: 1}},
			{{Reason: ReasonGenre, Weight: 0}},
		}
		for _, in := range inputs {
			got := g.Confidence(in)
			if got < 0.3 || got > 0.95 {
				t.Errorf("confidence %v out of [0.3, 0.95] for %v", got, in)
			}
		}
	})

	t.Run("self-weighted average plus diversity bonus", func(t *testing.T) {
		// Single factor w=0.5: 0.5*0.8 + 0.05 = 0.45.
		got := g.Confidence([]Factor{{Reason: ReasonGenre, Weight: 0.5}})
		if math.Abs(got-0.45) > 1e-9 {
			t.Errorf("got %v, want 0.45", got)
		}
	})

	t.Run("diversity bonus capped", func(t *testing.T) {
		many := []Factor{
			{Reason: ReasonGenre, Weight: 0.5},
			{Reason: ReasonActor, Weight: 0.5},
			{Reason: ReasonRating, Weight: 0.5},
			{Reason: ReasonSocial, Weight: 0.5},
			{Reason: ReasonMood, Weight: 0.5},
		}
		// 0.4 base + min(0.15, 0.25) = 0.55.
		got := g.Confidence(many)
		if math.Abs(got-0.55) > 1e-9 {
			t.Errorf("got %v, want 0.55", got)
		}
	})
}

func TestExplain_EndToEnd(t *testing.T) {
	g := NewGenerator()

	raw := append(
		g.AnalyzeContribution("content-based", 0.85, []string{"603"}),
		g.AnalyzeContribution("rating", 0.7, nil)...,
	)
	exp := g.Explain(raw)

	if exp.Text == "" {
		t.Error("empty explanation text")
	}
	if exp.Confidence < 0.3 || exp.Confidence > 0.95 {
		t.Errorf("confidence %v out of range", exp.Confidence)
	}
	if len(exp.Factors) == 0 || exp.Factors[0].Reason != ReasonGenre {
		t.Errorf("factors = %v, want genre first", exp.Factors)
	}
}
