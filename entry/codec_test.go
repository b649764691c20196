package entry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(seq uint64) Entry {
	e := NewAt(time.Unix(0, int64(seq)*1000), ActionUpdate, []byte("key-1"), []byte("payload-bytes"))
	e = e.WithSubject("subject-1").WithIdentifiers("controller-1", "processor-1")
	return e
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	e := sampleEntry(1).WithPreviousHash([]byte{1, 2, 3, 4})

	buf := Serialize(e)
	got, n, err := Deserialize(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)

	assert.Equal(t, e.Timestamp().UnixNano(), got.Timestamp().UnixNano())
	assert.Equal(t, e.Action(), got.Action())
	assert.Equal(t, e.Key(), got.Key())
	assert.Equal(t, e.Subject(), got.Subject())
	assert.Equal(t, e.Controller(), got.Controller())
	assert.Equal(t, e.Processor(), got.Processor())
	assert.Equal(t, e.PreviousHash(), got.PreviousHash())
	assert.Equal(t, e.Payload(), got.Payload())
}

func TestDeserializeTruncated(t *testing.T) {
	e := sampleEntry(2)
	buf := Serialize(e)

	for n := 0; n < len(buf); n++ {
		_, _, err := Deserialize(buf[:n])
		assert.Error(t, err, "expected error truncating at %d of %d", n, len(buf))
	}
}

func TestBatchRoundTrip(t *testing.T) {
	entries := []Entry{sampleEntry(1), sampleEntry(2), sampleEntry(3)}
	buf := SerializeBatch(entries)

	got, err := DeserializeBatch(buf)
	require.NoError(t, err)
	require.Len(t, got, len(entries))
	for i := range entries {
		assert.Equal(t, entries[i].Sequence(), got[i].Sequence())
		assert.Equal(t, entries[i].Payload(), got[i].Payload())
	}
}

func TestBatchRoundTripEmpty(t *testing.T) {
	buf := SerializeBatch(nil)
	got, err := DeserializeBatch(buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeserializeBatchCorrupt(t *testing.T) {
	entries := []Entry{sampleEntry(1), sampleEntry(2)}
	buf := SerializeBatch(entries)

	_, err := DeserializeBatch(buf[:len(buf)-1])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptBatch)
}

func TestStableEncoding(t *testing.T) {
	ts := time.Unix(0, 123456789)
	a := NewAt(ts, ActionCreate, []byte("k"), []byte("v"))
	b := NewAt(ts, ActionCreate, []byte("k"), []byte("v"))

	// Two independently-constructed entries differ only by sequence
	// number; strip that field's effect by comparing the encoding around
	// it, since producers sharing a counter never collide.
	ba, bb := Serialize(a), Serialize(b)
	assert.Equal(t, len(ba), len(bb))
	// Bytes 8..16 hold the sequence number; everything else must match.
	assert.Equal(t, ba[:8], bb[:8])
	assert.Equal(t, ba[16:], bb[16:])
}

func TestChainHasher(t *testing.T) {
	hasher := NewChainHasher()
	e1 := hasher.Next(sampleEntry(1))
	assert.Empty(t, e1.PreviousHash())

	e2 := hasher.Next(sampleEntry(2))
	assert.True(t, VerifyChain(e1, e2))

	tampered := e2.WithPreviousHash([]byte("not-the-right-hash-at-all"))
	assert.False(t, VerifyChain(e1, tampered))
}

func TestSequenceMonotonic(t *testing.T) {
	a := NextSequence()
	b := NextSequence()
	assert.Less(t, a, b)
}
