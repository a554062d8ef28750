// Package contentstore is a thin client over the external
// content-addressed file store (spec §4.6). The store itself — an
// opaque get(cid) -> bytes, put(bytes) -> cid service — is an external
// collaborator; this package only adds retry-with-backoff and the
// terminal parse-failure boundary.
package contentstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nolik/nolik-cli/internal/envelope"
)

// ErrCouldNotReadContentStoreData is terminal: the bytes retrieved from
// the store did not parse as a Batch.
var ErrCouldNotReadContentStoreData = errors.New("could not read content store data")

// ErrCouldNotAddFileToStore is terminal: publishing a Batch failed.
// The Batch could not be serialized, the put was still failing when the
// caller's context ended, or the (unretried) pin call failed.
var ErrCouldNotAddFileToStore = errors.New("could not add file to store")

// Backend is the external content-addressed store collaborator: an
// opaque byte store keyed by content identifier.
type Backend interface {
	Get(ctx context.Context, cid string) ([]byte, error)
	Put(ctx context.Context, data []byte) (cid string, err error)
	Pin(ctx context.Context, cid string) error
}

// RetryConfig controls the exponential backoff applied to failed
// backend calls, grounded on the same shape as the mesh agent's peer
// reconnector: bounded exponential growth from an initial delay up to a
// cap, retried until the caller's context is done.
type RetryConfig struct {
	Initial time.Duration
	Max     time.Duration
}

// DefaultRetryConfig matches spec §4.6: initial 2s, cap at 30s, retried
// indefinitely — the caller imposes the upper bound via ctx.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Initial: 2 * time.Second, Max: 30 * time.Second}
}

// Client wraps a Backend with retry-with-backoff and Batch (de)serialization.
type Client struct {
	backend Backend
	retry   RetryConfig
	logger  *slog.Logger
}

// New creates a content store client.
func New(backend Backend, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{backend: backend, retry: DefaultRetryConfig(), logger: logger}
}

// WithRetryConfig overrides the default backoff parameters.
func (c *Client) WithRetryConfig(cfg RetryConfig) *Client {
	c.retry = cfg
	return c
}

// Get retrieves a Batch by CID, retrying with exponential backoff.
// Every backend error is retried the same way; transient and permanent
// failures are not told apart. A successfully-retrieved payload that
// does not parse as a Batch is a terminal failure — it is never retried.
func (c *Client) Get(ctx context.Context, cid string) (*envelope.Batch, error) {
	data, err := c.withRetry(ctx, "get", func() ([]byte, error) {
		return c.backend.Get(ctx, cid)
	})
	if err != nil {
		return nil, err
	}

	batch, err := envelope.UnmarshalBatch(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCouldNotReadContentStoreData, err)
	}
	return batch, nil
}

// Put serializes a Batch to TOML, publishes it, and pins it so that a
// subsequent Get from a different node resolves.
func (c *Client) Put(ctx context.Context, batch *envelope.Batch) (string, error) {
	data, err := batch.MarshalTOML()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCouldNotAddFileToStore, err)
	}

	var cid string
	_, err = c.withRetry(ctx, "put", func() ([]byte, error) {
		id, putErr := c.backend.Put(ctx, data)
		if putErr != nil {
			return nil, putErr
		}
		cid = id
		return nil, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCouldNotAddFileToStore, err)
	}

	if err := c.backend.Pin(ctx, cid); err != nil {
		return "", fmt.Errorf("%w: pin failed: %v", ErrCouldNotAddFileToStore, err)
	}

	return cid, nil
}

// withRetry retries op with exponential backoff until it succeeds or
// ctx is done. There is no retry-count ceiling: the caller's context
// deadline is the only bound, per spec §4.6.
func (c *Client) withRetry(ctx context.Context, op string, f func() ([]byte, error)) ([]byte, error) {
	delay := c.retry.Initial
	attempt := 0
	for {
		attempt++
		data, err := f()
		if err == nil {
			return data, nil
		}

		c.logger.Debug("content store operation failed, retrying",
			"op", op, "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay = nextDelay(delay, c.retry.Max)
	}
}

func nextDelay(current, max time.Duration) time.Duration {
	next := time.Duration(math.Min(float64(current)*2, float64(max)))
	if next < current {
		return max
	}
	return next
}
