package codec

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	cases := [][]int{
		{},
		{0},
		{1},
		{MaxValue},
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
	}
	for i := 0; i < 200; i++ {
		n := rng.Intn(1100)
		vals := make([]int, n)
		for j := range vals {
			vals[j] = int(rng.Uint32())
		}
		cases = append(cases, vals)
	}

	for _, vals := range cases {
		b, err := Encode(vals)
		require.NoError(t, err)
		assert.Len(t, b, EncodedSize(len(vals)))

		got, err := Decode(b)
		require.NoError(t, err)
		assert.Equal(t, vals, got)
	}
}

func TestRecord_Layout(t *testing.T) {
	b, err := Encode([]int{1, 258})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		2, 0, 0, 0,
		1, 0, 0, 0,
		2, 1, 0, 0,
	}, b)
}

func TestRecord_Append(t *testing.T) {
	prefix := []byte("abc")
	b, err := Append(prefix, []int{42})
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b[:3]))

	v, err := DecodeScalar(b[3:])
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRecord_OutOfRange(t *testing.T) {
	for _, v := range []int{-1, math.MinInt32} {
		_, err := Encode([]int{0, v})
		require.ErrorIs(t, err, ErrValueOutOfRange)

		var re *RangeError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, 1, re.Index)
		assert.Equal(t, v, re.Value)
	}

	if big := int64(MaxValue) + 1; int64(math.MaxInt) >= big {
		_, err := Encode([]int{int(big)})
		assert.ErrorIs(t, err, ErrValueOutOfRange)
	}

	dst := []byte("keep")
	out, err := Append(dst, []int{-5})
	assert.Error(t, err)
	assert.Equal(t, "keep", string(out))
}

func TestRecord_Corrupt(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Decode([]byte{1, 0})
	assert.ErrorIs(t, err, ErrCorrupt)

	// Header claims 2 values, body holds 1.
	_, err = Decode([]byte{2, 0, 0, 0, 1, 0, 0, 0})
	assert.ErrorIs(t, err, ErrCorrupt)

	b, err := Encode([]int{1, 2})
	require.NoError(t, err)
	_, err = DecodeScalar(b)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestGoJSON(t *testing.T) {
	type manifest struct {
		Split   string `json:"split"`
		Samples int    `json:"samples"`
	}
	in := manifest{Split: "train", Samples: 3}

	b, err := Default.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"split":"train","samples":3}`, string(b))

	var out manifest
	require.NoError(t, Default.Unmarshal(b, &out))
	assert.Equal(t, in, out)
	assert.Equal(t, "go-json", Default.Name())

	indented, err := GoJSON{}.MarshalIndent(in)
	require.NoError(t, err)
	assert.Contains(t, string(indented), "\n  \"split\": \"train\"")
}

func BenchmarkEncode(b *testing.B) {
	vals := make([]int, 1024)
	for i := range vals {
		vals[i] = i % 70
	}
	b.ReportAllocs()
	b.SetBytes(int64(EncodedSize(len(vals))))
	for b.Loop() {
		if _, err := Encode(vals); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	vals := make([]int, 1024)
	buf, err := Encode(vals)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(buf)))
	for b.Loop() {
		if _, err := Decode(buf); err != nil {
			b.Fatal(err)
		}
	}
}
