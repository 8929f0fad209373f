package vocab

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowercase(t *testing.T) {
	p := Lowercase()
	assert.Equal(t, "hello world", p.Transform("Hello WORLD"))
	// Full-width letters fold to ASCII under NFKC.
	assert.Equal(t, "abc", p.Transform("ＡＢＣ"))
	assert.Equal(t, "", p.Transform(""))
}

func TestLowercase_Concurrent(t *testing.T) {
	p := Lowercase()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.Equal(t, "mixed case", p.Transform("MiXeD CaSe"))
			}
		}()
	}
	wg.Wait()
}

func TestChain(t *testing.T) {
	trim := PreprocessorFunc(strings.TrimSpace)
	p := Chain(trim, Lowercase(), Identity())
	assert.Equal(t, "title body", p.Transform("  Title Body  "))
}
