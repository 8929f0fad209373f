package vocab

import (
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Preprocessor rewrites raw text before vectorization.
// Implementations must be safe for concurrent use.
type Preprocessor interface {
	Transform(text string) string
}

// PreprocessorFunc adapts a function to Preprocessor.
type PreprocessorFunc func(string) string

// Transform calls f(text).
func (f PreprocessorFunc) Transform(text string) string { return f(text) }

// Identity returns text unchanged.
func Identity() Preprocessor {
	return PreprocessorFunc(func(s string) string { return s })
}

// Lowercase applies NFKC normalization followed by Unicode lower-casing,
// folding full-width and compatibility forms onto the default alphabet.
func Lowercase() Preprocessor {
	return &lowercase{
		pool: sync.Pool{New: func() any {
			c := cases.Lower(language.Und)
			return &c
		}},
	}
}

type lowercase struct {
	// cases.Caser is stateful and must not be shared between goroutines.
	pool sync.Pool
}

func (l *lowercase) Transform(text string) string {
	c := l.pool.Get().(*cases.Caser)
	defer l.pool.Put(c)
	return c.String(norm.NFKC.String(text))
}

// Chain applies preprocessors in order.
func Chain(ps ...Preprocessor) Preprocessor {
	return PreprocessorFunc(func(s string) string {
		for _, p := range ps {
			s = p.Transform(s)
		}
		return s
	})
}
