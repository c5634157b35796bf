package testutil

import (
	"context"
	"errors"
	"testing"
)

func TestHashEmbedder_DistinctWordsDoNotOverlap(t *testing.T) {
	e := NewHashEmbedder()
	vecs, err := e.Embed(context.Background(), []string{"function query", "renewal subscription card", "Card renewal"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vecs) != 3 || len(vecs[0]) != DefaultDims {
		t.Fatalf("Embed() shape = %d x %d", len(vecs), len(vecs[0]))
	}
	if dot(vecs[0], vecs[1]) != 0 {
		t.Error("texts with no shared words should be orthogonal")
	}
	if dot(vecs[1], vecs[2]) != 2 {
		t.Errorf("shared words dot = %v, want 2", dot(vecs[1], vecs[2]))
	}

	again, _ := e.Embed(context.Background(), []string{"renewal subscription card"})
	if dot(again[0], vecs[1]) != 3 {
		t.Error("the same text should embed the same way across calls")
	}
}

func TestHashEmbedder_OverflowFallsBackToHash(t *testing.T) {
	e := &HashEmbedder{Dims: 2}
	vecs, err := e.Embed(context.Background(), []string{"a b c d"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vecs[0]) != 2 || vecs[0][0]+vecs[0][1] != 4 {
		t.Errorf("vector = %v, want every word counted in 2 dims", vecs[0])
	}
}

func TestHashEmbedder_Fail(t *testing.T) {
	e := NewHashEmbedder()
	e.Fail()
	if _, err := e.Embed(context.Background(), []string{"x"}); !errors.Is(err, ErrEmbedderDown) {
		t.Errorf("Embed() error = %v, want ErrEmbedderDown", err)
	}
	if e.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", e.Calls())
	}
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
