package writer

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njcx/auditlogd/entry"
	"github.com/njcx/auditlogd/queue"
)

type fakeStorage struct {
	mu     sync.Mutex
	writes map[string][][]byte
	failOn string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{writes: make(map[string][][]byte)}
}

func (f *fakeStorage) WriteTo(destination string, data []byte) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if destination == f.failOn {
		return 0, fmt.Errorf("injected failure")
	}
	f.writes[destination] = append(f.writes[destination], append([]byte(nil), data...))
	return 0, nil
}

func (f *fakeStorage) countFor(dest string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes[dest])
}

func testConfig() Config {
	return Config{BatchSize: 16, IdleSleep: time.Millisecond, CompressionLevel: 0, UseEncryption: false}
}

func TestFrameRoundTripPlain(t *testing.T) {
	raw := []byte("hello audit world")
	frame, err := EncodeFrame(raw, false, nil)
	require.NoError(t, err)

	got, n, err := DecodeFrame(frame, false, nil)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
	assert.Equal(t, len(frame), n)
}

func TestFrameRoundTripEncrypted(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	raw := []byte("sensitive audit payload that is reasonably long")
	frame, err := EncodeFrame(raw, true, key)
	require.NoError(t, err)

	got, n, err := DecodeFrame(frame, true, key)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
	assert.Equal(t, len(frame), n)
}

func TestFrameTruncatedDetected(t *testing.T) {
	raw := []byte("hello")
	frame, err := EncodeFrame(raw, false, nil)
	require.NoError(t, err)

	_, _, err = DecodeFrame(frame[:len(frame)-1], false, nil)
	assert.ErrorIs(t, err, ErrTruncatedFrame)
}

func TestWriterDispatchGroupsByDestination(t *testing.T) {
	storage := newFakeStorage()
	q := queue.New(64, 4)
	prod, err := q.ProducerToken()
	require.NoError(t, err)

	items := []queue.WorkItem{
		{Entry: entry.New(entry.ActionCreate, []byte("k1"), []byte("p1")), Destination: "alpha"},
		{Entry: entry.New(entry.ActionCreate, []byte("k2"), []byte("p2")), Destination: "beta"},
		{Entry: entry.New(entry.ActionCreate, []byte("k3"), []byte("p3")), Destination: "alpha"},
	}
	require.True(t, prod.EnqueueBatchBlocking(items, time.Second))

	w := New(0, testConfig(), storage, q.ConsumerToken(), nil, nil)
	go w.Run()
	defer w.Stop()

	assert.Eventually(t, func() bool {
		return storage.countFor("alpha") == 1 && storage.countFor("beta") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestWriterReportsPerBucketErrorsAndContinues(t *testing.T) {
	storage := newFakeStorage()
	storage.failOn = "bad"
	q := queue.New(64, 4)
	prod, err := q.ProducerToken()
	require.NoError(t, err)

	items := []queue.WorkItem{
		{Entry: entry.New(entry.ActionCreate, []byte("k1"), []byte("p1")), Destination: "bad"},
		{Entry: entry.New(entry.ActionCreate, []byte("k2"), []byte("p2")), Destination: "good"},
	}
	require.True(t, prod.EnqueueBatchBlocking(items, time.Second))

	errCh := make(chan ErrorEvent, 4)
	w := New(0, testConfig(), storage, q.ConsumerToken(), errCh, nil)
	go w.Run()
	defer w.Stop()

	select {
	case ev := <-errCh:
		assert.Equal(t, "bad", ev.Destination)
		assert.Error(t, ev.Err)
	case <-time.After(time.Second):
		t.Fatal("expected an error event")
	}

	assert.Eventually(t, func() bool { return storage.countFor("good") == 1 }, time.Second, 5*time.Millisecond)
}

func TestWriterStopDrainsThenStops(t *testing.T) {
	storage := newFakeStorage()
	q := queue.New(256, 4)
	prod, err := q.ProducerToken()
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		e := entry.New(entry.ActionCreate, []byte("k"), []byte("p"))
		require.True(t, prod.EnqueueBlocking(queue.WorkItem{Entry: e}, time.Second))
	}

	w := New(0, testConfig(), storage, q.ConsumerToken(), nil, nil)
	go w.Run()
	w.Stop()

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("writer did not stop")
	}
	assert.Equal(t, StateStopped, w.State())
	assert.Equal(t, uint64(50), w.Written())
}

func TestPoolStopJoinsAllWriters(t *testing.T) {
	storage := newFakeStorage()
	q := queue.New(64, 4)
	pool := NewPool(3, testConfig(), storage, q, 16, nil)

	ok := pool.Stop(2 * time.Second)
	assert.True(t, ok)
	for _, s := range pool.States() {
		assert.Equal(t, StateStopped, s)
	}
}
