package hash

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC32C(t *testing.T) {
	// Check value from RFC 3720, appendix B.4.
	assert.Equal(t, uint32(0xe3069283), CRC32C([]byte("123456789")))
	assert.Equal(t, uint32(0), CRC32C(nil))
}

func TestNewCRC32C_MatchesOneShot(t *testing.T) {
	data := strings.Repeat("txt-000000042 label-000000042 ", 1000)

	h := NewCRC32C()
	// Small chunks exercise the streaming path.
	_, err := io.CopyBuffer(h, strings.NewReader(data), make([]byte, 7))
	require.NoError(t, err)

	assert.Equal(t, CRC32C([]byte(data)), h.Sum32())
}
