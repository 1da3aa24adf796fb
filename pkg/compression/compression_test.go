package compression

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func algorithms() []Algorithm {
	return []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2}
}

func TestParseAlgorithm(t *testing.T) {
	for _, alg := range algorithms() {
		parsed, err := ParseAlgorithm(string(alg))
		require.NoError(t, err)
		assert.Equal(t, alg, parsed)
	}

	parsed, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, None, parsed)

	_, err = ParseAlgorithm("brotli")
	assert.Error(t, err)
}

func TestRoundTripShrinksRepetitiveData(t *testing.T) {
	data := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog\n", 200))

	for _, alg := range algorithms() {
		t.Run(string(alg), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, alg)
			require.NoError(t, err)
			_, err = w.Write(data)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if alg != None {
				assert.Less(t, buf.Len(), len(data),
					"repetitive data should shrink under %s", alg)
			}

			r, err := NewReader(&buf, alg)
			require.NoError(t, err)
			defer r.Close()

			var out bytes.Buffer
			_, err = out.ReadFrom(r)
			require.NoError(t, err)
			assert.Equal(t, data, out.Bytes())
		})
	}
}

func TestStreamingRoundTrip(t *testing.T) {
	data := []byte(strings.Repeat("0123456789abcdef", 1000))

	for _, alg := range algorithms() {
		t.Run(string(alg), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, alg)
			require.NoError(t, err)

			// Write in chunks to exercise buffering
			for i := 0; i < len(data); i += 1024 {
				end := i + 1024
				if end > len(data) {
					end = len(data)
				}
				_, err := w.Write(data[i:end])
				require.NoError(t, err)
			}
			require.NoError(t, w.Close())

			r, err := NewReader(&buf, alg)
			require.NoError(t, err)
			defer r.Close()

			var out bytes.Buffer
			_, err = out.ReadFrom(r)
			require.NoError(t, err)
			assert.Equal(t, data, out.Bytes())
		})
	}
}

func TestEmptyInput(t *testing.T) {
	for _, alg := range algorithms() {
		t.Run(string(alg), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, alg)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := NewReader(&buf, alg)
			require.NoError(t, err)
			defer r.Close()

			var out bytes.Buffer
			_, err = out.ReadFrom(r)
			require.NoError(t, err)
			assert.Empty(t, out.Bytes())
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".gz", Extension(Gzip))
	assert.Equal(t, ".zst", Extension(Zstd))
	assert.Equal(t, "", Extension(None))
}
