package zlibpool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInflate(t *testing.T) {
	t.Parallel()

	src := bytes.Repeat([]byte("relic "), 100)
	z, err := Deflate(src)
	require.NoError(t, err)
	assert.Less(t, len(z), len(src))

	// Run twice so the second call reuses a pooled reader.
	for range 2 {
		got, err := Inflate(z, len(src))
		require.NoError(t, err)
		assert.Equal(t, src, got)
	}

	_, err = Inflate(z, len(src)-1)
	require.ErrorIs(t, err, ErrLongOutput)

	_, err = Inflate(z, len(src)+1)
	require.Error(t, err)

	_, err = Inflate([]byte("not zlib"), 4)
	require.Error(t, err)
}

func TestIntoTrailingInput(t *testing.T) {
	t.Parallel()

	z, err := Deflate([]byte("abc"))
	require.NoError(t, err)

	dst := make([]byte, 3)
	rest, err := Into(dst, append(bytes.Clone(z), 1, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, rest)
	assert.Equal(t, []byte("abc"), dst)
}
