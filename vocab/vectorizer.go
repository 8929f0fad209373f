package vocab

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Side selects which end of a sequence padding or truncation applies to.
type Side int

const (
	// Post pads or truncates at the end of the sequence.
	Post Side = iota
	// Pre pads or truncates at the start of the sequence.
	Pre
)

func (s Side) String() string {
	switch s {
	case Post:
		return "post"
	case Pre:
		return "pre"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// ParseSide parses "post" or "pre".
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "post", "":
		return Post, nil
	case "pre":
		return Pre, nil
	default:
		return Post, fmt.Errorf("vocab: unknown side %q", s)
	}
}

// VectorizerOption configures a Vectorizer.
type VectorizerOption func(*Vectorizer)

// WithPadding selects where pad ids go. Default Post.
func WithPadding(s Side) VectorizerOption {
	return func(vz *Vectorizer) { vz.padding = s }
}

// WithTruncating selects which end is dropped from long texts. Default Post,
// which keeps the prefix.
func WithTruncating(s Side) VectorizerOption {
	return func(vz *Vectorizer) { vz.truncating = s }
}

// Vectorizer converts text into exactly MaxLen vocabulary ids.
type Vectorizer struct {
	vocab      *Vocabulary
	maxLen     int
	padding    Side
	truncating Side
}

// NewVectorizer returns a Vectorizer producing sequences of maxLen ids.
func NewVectorizer(v *Vocabulary, maxLen int, opts ...VectorizerOption) (*Vectorizer, error) {
	if v == nil {
		return nil, fmt.Errorf("vocab: nil vocabulary")
	}
	if maxLen <= 0 {
		return nil, fmt.Errorf("vocab: max length must be positive, got %d", maxLen)
	}
	vz := &Vectorizer{vocab: v, maxLen: maxLen}
	for _, opt := range opts {
		opt(vz)
	}
	return vz, nil
}

// MaxLen returns the fixed output length.
func (vz *Vectorizer) MaxLen() int { return vz.maxLen }

// Vocabulary returns the vocabulary used for lookups.
func (vz *Vectorizer) Vocabulary() *Vocabulary { return vz.vocab }

// Padding returns the padding side.
func (vz *Vectorizer) Padding() Side { return vz.padding }

// Truncating returns the truncation side.
func (vz *Vectorizer) Truncating() Side { return vz.truncating }

// Transform maps text to MaxLen ids. It never fails: an empty text yields
// MaxLen pad ids.
func (vz *Vectorizer) Transform(text string) []int {
	out := make([]int, vz.maxLen)
	vz.TransformInto(out, text)
	return out
}

// TransformInto writes the ids of text into dst, which must have length MaxLen.
func (vz *Vectorizer) TransformInto(dst []int, text string) {
	if len(dst) != vz.maxLen {
		panic(fmt.Sprintf("vocab: destination length %d, want %d", len(dst), vz.maxLen))
	}

	n := utf8.RuneCountInString(text)
	skip := 0
	if n > vz.maxLen {
		if vz.truncating == Pre {
			skip = n - vz.maxLen
		}
		n = vz.maxLen
	}

	offset := 0
	if vz.padding == Pre {
		offset = vz.maxLen - n
	}
	for i := 0; i < offset; i++ {
		dst[i] = PadID
	}

	pos := 0
	for _, r := range text {
		if skip > 0 {
			skip--
			continue
		}
		if pos == n {
			break
		}
		dst[offset+pos] = vz.vocab.ID(r)
		pos++
	}
	for i := offset + n; i < vz.maxLen; i++ {
		dst[i] = PadID
	}
}

// Decode renders ids back to text for inspection. Pad ids are dropped and
// unknown ids render as '?'.
func (vz *Vectorizer) Decode(ids []int) string {
	var sb strings.Builder
	sb.Grow(len(ids))
	for _, id := range ids {
		switch id {
		case PadID:
			continue
		case UnknownID:
			sb.WriteByte('?')
		default:
			if r, ok := vz.vocab.Rune(id); ok {
				sb.WriteRune(r)
			} else {
				sb.WriteByte('?')
			}
		}
	}
	return sb.String()
}
