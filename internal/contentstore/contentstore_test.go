package contentstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nolik/nolik-cli/internal/envelope"
	"github.com/nolik/nolik-cli/internal/sealedbox"
)

type fakeBackend struct {
	mu            sync.Mutex
	store         map[string][]byte
	failUntil     int
	attempts      int
	pinned        map[string]bool
	pinShouldFail bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{store: map[string][]byte{}, pinned: map[string]bool{}}
}

func (f *fakeBackend) Get(_ context.Context, cid string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.failUntil {
		return nil, errors.New("transient error")
	}
	data, ok := f.store[cid]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (f *fakeBackend) Put(_ context.Context, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cid := "cid-1"
	f.store[cid] = data
	return cid, nil
}

func (f *fakeBackend) Pin(_ context.Context, cid string) error {
	if f.pinShouldFail {
		return errors.New("pin failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pinned[cid] = true
	return nil
}

func testBatch(t *testing.T) *envelope.Batch {
	t.Helper()
	senderPub, senderSec, err := sealedbox.NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	recipientPub, _, err := sealedbox.NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	batch, otu, err := envelope.Encrypt(envelope.MessageInput{
		SenderPublic: senderPub,
		SenderSecret: senderSec,
		Recipients:   []envelope.PublicKey{recipientPub},
		Entries:      []envelope.Entry{{Key: "k", Value: "v"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	otu.Zero()
	return batch
}

func TestPutGet_RoundTrip(t *testing.T) {
	backend := newFakeBackend()
	client := New(backend, nil)

	batch := testBatch(t)
	cid, err := client.Put(context.Background(), batch)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if !backend.pinned[cid] {
		t.Error("expected CID to be pinned after Put")
	}

	got, err := client.Get(context.Background(), cid)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Messages) != len(batch.Messages) {
		t.Errorf("messages = %d, want %d", len(got.Messages), len(batch.Messages))
	}
}

func TestGet_RetriesTransientErrors(t *testing.T) {
	backend := newFakeBackend()
	client := New(backend, nil).WithRetryConfig(RetryConfig{Initial: time.Millisecond, Max: 5 * time.Millisecond})

	batch := testBatch(t)
	cid, err := client.Put(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}

	backend.mu.Lock()
	backend.attempts = 0
	backend.failUntil = 3
	backend.mu.Unlock()

	if _, err := client.Get(context.Background(), cid); err != nil {
		t.Fatalf("Get() error = %v, want success after retries", err)
	}
}

func TestGet_ParseFailureIsTerminal(t *testing.T) {
	backend := newFakeBackend()
	backend.store["bad-cid"] = []byte("not valid toml {{{")
	client := New(backend, nil)

	_, err := client.Get(context.Background(), "bad-cid")
	if !errors.Is(err, ErrCouldNotReadContentStoreData) {
		t.Errorf("Get() error = %v, want ErrCouldNotReadContentStoreData", err)
	}
}

func TestGet_ContextCancelStopsRetry(t *testing.T) {
	backend := newFakeBackend()
	backend.failUntil = 1000000
	client := New(backend, nil).WithRetryConfig(RetryConfig{Initial: 5 * time.Millisecond, Max: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, "whatever")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Get() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestPut_PinFailureIsReported(t *testing.T) {
	backend := newFakeBackend()
	backend.pinShouldFail = true
	client := New(backend, nil)

	batch := testBatch(t)
	if _, err := client.Put(context.Background(), batch); !errors.Is(err, ErrCouldNotAddFileToStore) {
		t.Errorf("Put() error = %v, want ErrCouldNotAddFileToStore", err)
	}
}
