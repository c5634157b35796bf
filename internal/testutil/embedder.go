package testutil

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"
)

// DefaultDims is the dimension of HashEmbedder vectors.
const DefaultDims = 256

// ErrEmbedderDown is returned by a HashEmbedder after Fail is called.
var ErrEmbedderDown = errors.New("embedder unavailable")

// HashEmbedder embeds text as a bag of lowercase words, so texts sharing
// words end up close under cosine similarity. Each new word takes the next
// free dimension; only once every dimension is taken do words fall back to
// a hashed slot. It is deterministic and needs no network.
type HashEmbedder struct {
	Dims int

	mu     sync.Mutex
	calls  int
	failed bool
	vocab  map[string]int
}

// NewHashEmbedder returns an embedder producing DefaultDims vectors.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{Dims: DefaultDims}
}

// Fail makes every later Embed call return ErrEmbedderDown.
func (e *HashEmbedder) Fail() {
	e.mu.Lock()
	e.failed = true
	e.mu.Unlock()
}

// Calls returns how many times Embed was called.
func (e *HashEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Embed returns one vector per text.
func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.failed {
		return nil, ErrEmbedderDown
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dims := e.Dims
	if dims <= 0 {
		dims = DefaultDims
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, dims)
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			v[e.slot(w, dims)]++
		}
		out[i] = v
	}
	return out, nil
}

// slot returns the dimension for word. Callers hold e.mu.
func (e *HashEmbedder) slot(word string, dims int) int {
	if i, ok := e.vocab[word]; ok {
		return i
	}
	if e.vocab == nil {
		e.vocab = make(map[string]int)
	}
	if len(e.vocab) < dims {
		i := len(e.vocab)
		e.vocab[word] = i
		return i
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(word))
	return int(h.Sum32() % uint32(dims))
}
