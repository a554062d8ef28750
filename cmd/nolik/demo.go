package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nolik/nolik-cli/internal/codec"
	"github.com/nolik/nolik-cli/internal/contentstore"
	"github.com/nolik/nolik-cli/internal/envelope"
	"github.com/nolik/nolik-cli/internal/index"
	"github.com/nolik/nolik-cli/internal/sealedbox"
)

// memoryBackend is a content-addressed store kept entirely in process
// memory, keyed by the blake2s hash of the stored bytes. It satisfies
// contentstore.Backend without reaching an external IPFS gateway, so
// `demo` can exercise a full send/receive round trip offline.
type memoryBackend struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{blobs: make(map[string][]byte)}
}

func (m *memoryBackend) Get(_ context.Context, cid string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[cid]
	if !ok {
		return nil, fmt.Errorf("no such blob: %s", cid)
	}
	return data, nil
}

func (m *memoryBackend) Put(_ context.Context, data []byte) (string, error) {
	cid := sealedbox.HashBytes(data)
	m.mu.Lock()
	m.blobs[cid] = data
	m.mu.Unlock()
	return cid, nil
}

func (m *memoryBackend) Pin(_ context.Context, _ string) error {
	return nil
}

// demoCmd runs a complete send-then-receive round trip against an
// in-memory content store, without anchoring anything on-chain, so the
// message pipeline can be exercised without a reachable node or IPFS
// gateway (spec §4, end to end).
func demoCmd(a *app) *cobra.Command {
	var entries []string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a local send/receive round trip between two freshly generated accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			senderPub, senderSec, err := sealedbox.NewKeypair()
			if err != nil {
				return fmt.Errorf("generate sender keypair: %w", err)
			}
			recipientPub, recipientSec, err := sealedbox.NewKeypair()
			if err != nil {
				return fmt.Errorf("generate recipient keypair: %w", err)
			}

			mi := envelope.MessageInput{
				SenderPublic: senderPub,
				SenderSecret: senderSec,
				Recipients:   []envelope.PublicKey{recipientPub},
			}
			if len(entries) == 0 {
				entries = []string{"subject=hello from demo"}
			}
			for _, e := range entries {
				k, v, _ := strings.Cut(e, "=")
				mi.Entries = append(mi.Entries, envelope.Entry{Key: k, Value: v})
			}

			batch, otu, err := envelope.Encrypt(mi)
			if err != nil {
				return fmt.Errorf("encrypt message: %w", err)
			}
			defer otu.Zero()

			ctx := cmd.Context()
			store := contentstore.New(newMemoryBackend(), a.logger)
			cid, err := store.Put(ctx, batch)
			if err != nil {
				return fmt.Errorf("publish batch: %w", err)
			}
			fmt.Fprintf(out, "published batch as cid %s\n", cid)

			fetched, err := store.Get(ctx, cid)
			if err != nil {
				return fmt.Errorf("fetch batch: %w", err)
			}

			msg, err := envelope.Decrypt(fetched, recipientPub, recipientSec)
			if err != nil {
				return fmt.Errorf("decrypt batch as recipient: %w", err)
			}

			idx := index.NewStore(a.cfg.DataDir, a.index)
			im, err := idx.Append(codec.PublicToBase58(recipientPub), msg, cid)
			if err != nil {
				return fmt.Errorf("save to index: %w", err)
			}

			fmt.Fprintf(out, "recipient decrypted message #%d with %d entries\n", im.Index, len(im.Entries))
			for _, e := range im.Entries {
				fmt.Fprintf(out, "  %s = %s\n", e.Key, e.Value)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&entries, "entry", nil, "key=value entry to include (repeatable, defaults to a greeting)")
	return cmd
}
