// Package uniseg splits text into chunks along Unicode sentence boundaries.
package uniseg

import (
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/catalogqa"
	"github.com/rivo/uniseg"
)

// DefaultMaxLength is the default maximum chunk length in runes.
const DefaultMaxLength = 1000

// Ensure Splitter implements catalogqa.Splitter at compile time.
var _ catalogqa.Splitter = (*Splitter)(nil)

// Splitter packs whole sentences into chunks of bounded length.
// Sentences longer than the limit are broken at word boundaries, and words
// longer than the limit are cut by rune.
type Splitter struct {
	maxLength int
	overlap   int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithMaxLength sets the maximum chunk length in runes.
func WithMaxLength(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxLength = n
		}
	}
}

// WithOverlap sets how many runes of trailing sentences from one chunk are
// repeated at the start of the next. Only whole sentences are repeated.
func WithOverlap(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.overlap = n
		}
	}
}

// NewSplitter creates a new Splitter.
func NewSplitter(opts ...Option) *Splitter {
	s := &Splitter{maxLength: DefaultMaxLength}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.maxLength {
		s.overlap = s.maxLength / 4
	}
	return s
}

// Split returns the chunks of text in order.
func (s *Splitter) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, catalogqa.Errorf(catalogqa.ECHUNK, "no text to split")
	}

	var chunks []string
	var current []string
	for _, unit := range s.units(text) {
		if len(current) > 0 && runeLen(strings.Join(current, "")+unit) > s.maxLength {
			chunks = append(chunks, join(current))
			current = s.carry(current, unit)
		}
		current = append(current, unit)
	}
	if len(current) > 0 {
		chunks = append(chunks, join(current))
	}

	if len(chunks) == 0 {
		return nil, catalogqa.Errorf(catalogqa.ECHUNK, "text produced no chunks")
	}
	return chunks, nil
}

// units returns the sentences of text with their trailing whitespace.
// Whitespace-only sentences (blank lines) stay attached to the sentence
// before them so paragraph breaks survive inside a chunk.
func (s *Splitter) units(text string) []string {
	var units []string
	state := -1
	for len(text) > 0 {
		var sentence string
		sentence, text, state = uniseg.FirstSentenceInString(text, state)

		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			if len(units) > 0 {
				units[len(units)-1] += sentence
			}
			continue
		}
		if runeLen(trimmed) > s.maxLength {
			units = append(units, s.breakLong(trimmed)...)
			continue
		}
		units = append(units, sentence)
	}
	return units
}

// breakLong splits an over-long sentence into pieces no longer than the
// maximum length, preferring word boundaries.
func (s *Splitter) breakLong(sentence string) []string {
	var pieces []string
	var sb strings.Builder
	flush := func() {
		if sb.Len() > 0 {
			pieces = append(pieces, sb.String()+" ")
			sb.Reset()
		}
	}

	for _, word := range strings.Fields(sentence) {
		for runeLen(word) > s.maxLength {
			flush()
			head, tail := splitRunes(word, s.maxLength)
			pieces = append(pieces, head+" ")
			word = tail
		}
		if sb.Len() > 0 && runeLen(sb.String())+1+runeLen(word) > s.maxLength {
			flush()
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(word)
	}
	flush()
	return pieces
}

// carry returns the trailing units of prev to repeat before next.
// The whole of prev is never repeated, so every chunk makes progress.
func (s *Splitter) carry(prev []string, next string) []string {
	if s.overlap <= 0 {
		return nil
	}
	start := len(prev)
	for i := len(prev) - 1; i >= 1; i-- {
		tail := prev[i:]
		if runeLen(join(tail)) > s.overlap {
			break
		}
		if runeLen(strings.Join(tail, "")+next) > s.maxLength {
			break
		}
		start = i
	}
	return append([]string(nil), prev[start:]...)
}

func join(units []string) string {
	return strings.TrimSpace(strings.Join(units, ""))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func splitRunes(s string, n int) (string, string) {
	runes := []rune(s)
	return string(runes[:n]), string(runes[n:])
}
