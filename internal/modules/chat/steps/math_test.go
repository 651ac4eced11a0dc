package steps

import (
	"math"
	"testing"
)

func TestCosineSymmetric(t *testing.T) {
	a := []float32{0.3, -0.5, 0.8}
	b := []float32{0.1, 0.9, -0.2}
	if got, rev := cosine(a, b), cosine(b, a); got != rev {
		t.Fatalf("cosine not symmetric: %v vs %v", got, rev)
	}
}

func TestCosineDegenerateInputsScoreZero(t *testing.T) {
	if got := cosine(nil, []float32{1, 2}); got != 0 {
		t.Fatalf("empty vector should score 0, got %v", got)
	}
	if got := cosine([]float32{1, 2}, []float32{1, 2, 3}); got != 0 {
		t.Fatalf("mismatched lengths should score 0, got %v", got)
	}
	if got := cosine([]float32{0, 0, 0}, []float32{1, 2, 3}); got != 0 {
		t.Fatalf("all-zero vector should score 0, got %v", got)
	}
}

func TestCosineIdenticalVectorsScoreOne(t *testing.T) {
	a := []float32{0.2, 0.4, -0.7}
	if got := cosine(a, a); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical vectors should score 1, got %v", got)
	}
}
