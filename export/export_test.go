package export

import (
	"os"
	"testing"
	"time"

	"github.com/elastic/elastic-agent-libs/logp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njcx/auditlogd/compress"
	"github.com/njcx/auditlogd/entry"
	"github.com/njcx/auditlogd/storage"
	"github.com/njcx/auditlogd/writer"
)

func compressBytes(raw []byte, level int) ([]byte, error) {
	return compress.Compress(raw, level)
}

func appendGarbage(t *testing.T, path string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Write([]byte{0xFF, 0xFF, 0xFF})
	require.NoError(t, err)
}

func writeSegments(t *testing.T, opts Options, entries []entry.Entry) {
	t.Helper()
	st, err := storage.New(storage.Config{
		BasePath:       opts.BasePath,
		BaseFilename:   opts.BaseFilename,
		MaxSegmentSize: 1 << 20,
		MaxOpenFiles:   4,
		MaxAttempts:    3,
		BaseRetryDelay: time.Millisecond,
	}, logp.L())
	require.NoError(t, err)
	defer st.Close()

	raw := entry.SerializeBatch(entries)
	if opts.CompressionLevel > 0 {
		var err error
		raw, err = compressFor(t, raw, opts.CompressionLevel)
		require.NoError(t, err)
	}
	frame, err := writer.EncodeFrame(raw, opts.UseEncryption, opts.Key)
	require.NoError(t, err)

	dest := opts.Destination
	_, err = st.WriteTo(dest, frame)
	require.NoError(t, err)
	require.NoError(t, st.Flush())
}

func compressFor(t *testing.T, raw []byte, level int) ([]byte, error) {
	t.Helper()
	return compressBytes(raw, level)
}

func TestReadAllPlain(t *testing.T) {
	opts := Options{BasePath: t.TempDir(), BaseFilename: "audit"}
	want := []entry.Entry{
		entry.New(entry.ActionCreate, []byte("k1"), []byte("p1")),
		entry.New(entry.ActionUpdate, []byte("k2"), []byte("p2")),
	}
	writeSegments(t, opts, want)

	r := NewReader(opts)
	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, want[0].Key(), got[0].Key())
	assert.Equal(t, want[1].Key(), got[1].Key())
}

func TestReadAllEncryptedAndCompressed(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	opts := Options{
		BasePath:         t.TempDir(),
		BaseFilename:     "audit",
		UseEncryption:    true,
		Key:              key,
		CompressionLevel: 6,
	}
	want := []entry.Entry{
		entry.New(entry.ActionDelete, []byte("k1"), []byte("secret payload")),
	}
	writeSegments(t, opts, want)

	r := NewReader(opts)
	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want[0].Payload(), got[0].Payload())
}

func TestReadAllStopsAtTruncatedTrailingFrame(t *testing.T) {
	opts := Options{BasePath: t.TempDir(), BaseFilename: "audit"}
	want := []entry.Entry{entry.New(entry.ActionCreate, []byte("k1"), []byte("p1"))}
	writeSegments(t, opts, want)

	segs, err := NewReader(opts).ListSegments()
	require.NoError(t, err)
	require.Len(t, segs, 1)

	appendGarbage(t, segs[0])

	r := NewReader(opts)
	got, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestListSegmentsDistinguishesDestinations(t *testing.T) {
	base := t.TempDir()
	optsDefault := Options{BasePath: base, BaseFilename: "audit"}
	optsAlpha := Options{BasePath: base, BaseFilename: "audit", Destination: "alpha"}

	writeSegments(t, optsDefault, []entry.Entry{entry.New(entry.ActionCreate, []byte("k"), nil)})
	writeSegments(t, optsAlpha, []entry.Entry{entry.New(entry.ActionCreate, []byte("k"), nil)})

	defaultSegs, err := NewReader(optsDefault).ListSegments()
	require.NoError(t, err)
	alphaSegs, err := NewReader(optsAlpha).ListSegments()
	require.NoError(t, err)

	assert.Len(t, defaultSegs, 1)
	assert.Len(t, alphaSegs, 1)
	assert.NotEqual(t, defaultSegs[0], alphaSegs[0])
}

func TestVerifyChainDetectsTamper(t *testing.T) {
	hasher := entry.NewChainHasher()
	e1 := hasher.Next(entry.New(entry.ActionCreate, []byte("k1"), []byte("p1")))
	e2 := hasher.Next(entry.New(entry.ActionUpdate, []byte("k2"), []byte("p2")))
	e3 := hasher.Next(entry.New(entry.ActionDelete, []byte("k3"), []byte("p3")))

	result := VerifyChain([]entry.Entry{e1, e2, e3})
	assert.Equal(t, 2, result.Verified)
	assert.Empty(t, result.Broken)

	tampered := e2.WithPreviousHash([]byte("not-the-right-hash-not-the-right-hash"))
	result = VerifyChain([]entry.Entry{e1, tampered, e3})
	assert.Equal(t, 1, result.Broken[0])
}
