package spread

import (
	"math/rand/v2"
	"strings"
	"sync"

	"cadence/internal/config"
	"cadence/internal/content"
)

// PhrasePicker chooses an intro phrase from a destination's pool.
type PhrasePicker interface {
	Pick(destinationID string, t content.Type, phrases []string) string
}

// RotatingPicker cycles through each destination's pool in order.
type RotatingPicker struct {
	mu   sync.Mutex
	next map[string]int
}

// NewRotatingPicker returns a picker that starts every pool at its first phrase.
func NewRotatingPicker() *RotatingPicker {
	return &RotatingPicker{next: make(map[string]int)}
}

func (p *RotatingPicker) Pick(destinationID string, t content.Type, phrases []string) string {
	if len(phrases) == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	key := destinationID + "|" + string(t)
	idx := p.next[key] % len(phrases)
	p.next[key] = idx + 1
	return phrases[idx]
}

// RandomPicker draws phrases uniformly from a seeded source.
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker seeds the picker; equal seeds give equal sequences.
func NewRandomPicker(seed uint64) *RandomPicker {
	return &RandomPicker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *RandomPicker) Pick(_ string, _ content.Type, phrases []string) string {
	if len(phrases) == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return phrases[p.rng.IntN(len(phrases))]
}

// FixedPicker always returns the phrase at Index, wrapping around short pools.
type FixedPicker struct {
	Index int
}

func (p FixedPicker) Pick(_ string, _ content.Type, phrases []string) string {
	if len(phrases) == 0 {
		return ""
	}
	idx := p.Index % len(phrases)
	if idx < 0 {
		idx += len(phrases)
	}
	return phrases[idx]
}

// PickerFor maps the configured phrase_selection mode to a picker.
func PickerFor(mode string, seed uint64) PhrasePicker {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case config.PhraseSelectionRandom:
		return NewRandomPicker(seed)
	default:
		return NewRotatingPicker()
	}
}
