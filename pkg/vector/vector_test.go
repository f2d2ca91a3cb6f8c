package vector

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestL2Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{
			name: "basic",
			in:   []float64{3, 4},
			want: []float64{0.6, 0.8},
		},
		{
			name: "already normalized",
			in:   []float64{1, 0, 0},
			want: []float64{1, 0, 0},
		},
		{
			name: "zero vector unchanged",
			in:   []float64{0, 0, 0},
			want: []float64{0, 0, 0},
		},
		{
			name: "empty",
			in:   []float64{},
			want: []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := L2Normalize(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !almostEqual(got[i], tt.want[i]) {
					t.Errorf("got[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestL2Normalize_DoesNotMutateInput(t *testing.T) {
	in := []float64{3, 4}
	_ = L2Normalize(in)
	if in[0] != 3 || in[1] != 4 {
		t.Errorf("input mutated: %v", in)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float64
		want    float64
		wantErr bool
	}{
		{
			name: "identical normalized vectors",
			a:    []float64{0.6, 0.8},
			b:    []float64{0.6, 0.8},
			want: 1,
		},
		{
			name: "orthogonal",
			a:    []float64{1, 0},
			b:    []float64{0, 1},
			want: 0,
		},
		{
			name: "opposite",
			a:    []float64{1, 0},
			b:    []float64{-1, 0},
			want: -1,
		},
		{
			name: "zero vector returns 0 not NaN",
			a:    []float64{0, 0},
			b:    []float64{1, 2},
			want: 0,
		},
		{
			name: "both zero",
			a:    []float64{0, 0},
			b:    []float64{0, 0},
			want: 0,
		},
		{
			name:    "dimension mismatch",
			a:       []float64{1, 2},
			b:       []float64{1, 2, 3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if tt.wantErr {
				if err != ErrDimensionMismatch {
					t.Fatalf("err = %v, want ErrDimensionMismatch", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.IsNaN(got) {
				t.Fatal("got NaN")
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosine_SelfSimilarityIsOne(t *testing.T) {
	vs := [][]float64{
		{1, 2, 3},
		{0.1, -0.5, 4, 2},
		{100},
	}
	for _, v := range vs {
		n := L2Normalize(v)
		got, err := Cosine(n, n)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(got-1) > 1e-9 {
			t.Errorf("cosine(n, n) = %v, want 1", got)
		}
	}
}

func TestEuclidean(t *testing.T) {
	got, err := Euclidean([]float64{0, 0}, []float64{3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 5) {
		t.Errorf("got %v, want 5", got)
	}

	if _, err := Euclidean([]float64{1}, []float64{1, 2}); err != ErrDimensionMismatch {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestCombineWeighted(t *testing.T) {
	t.Run("weights normalized before combine", func(t *testing.T) {
		// Weights 2:2 should behave like 0.5:0.5.
		got, err := CombineWeighted([][]float64{{1, 0}, {0, 1}}, []float64{2, 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		inv := 1 / math.Sqrt2
		if !almostEqual(got[0], inv) || !almostEqual(got[1], inv) {
			t.Errorf("got %v, want [%v %v]", got, inv, inv)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, err := CombineWeighted(nil, nil); err != ErrEmptyInput {
			t.Errorf("err = %v, want ErrEmptyInput", err)
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		if _, err := CombineWeighted([][]float64{{1}}, []float64{1, 2}); err != ErrEmptyInput {
			t.Errorf("err = %v, want ErrEmptyInput", err)
		}
	})

	t.Run("member dimension mismatch", func(t *testing.T) {
		if _, err := CombineWeighted([][]float64{{1, 0}, {1}}, []float64{1, 1}); err != ErrDimensionMismatch {
			t.Errorf("err = %v, want ErrDimensionMismatch", err)
		}
	})

	t.Run("all-zero weights fall back to uniform", func(t *testing.T) {
		got, err := CombineWeighted([][]float64{{1, 0}, {0, 1}}, []float64{0, 0})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !almostEqual(got[0], got[1]) {
			t.Errorf("expected uniform combine, got %v", got)
		}
	})
}

func TestTopK(t *testing.T) {
	query := []float64{1, 0}
	candidates := [][]float64{
		{0, 1},  // cos 0
		{1, 0},  // cos 1
		{1, 1},  // cos ~0.707
		{0, -1}, // cos 0, tie with index 0
	}

	got, err := TopK(query, candidates, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Index != 1 || got[1].Index != 2 {
		t.Errorf("order = %v, want best=1 second=2", got)
	}
	// Stable tie-break: index 0 comes before index 3.
	if got[2].Index != 0 {
		t.Errorf("tie-break: got index %d, want 0", got[2].Index)
	}

	if _, err := TopK(query, [][]float64{{1, 2, 3}}, 1); err != ErrDimensionMismatch {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}
