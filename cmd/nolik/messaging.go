package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nolik/nolik-cli/internal/chain"
	"github.com/nolik/nolik-cli/internal/codec"
	"github.com/nolik/nolik-cli/internal/contentstore"
	"github.com/nolik/nolik-cli/internal/envelope"
	"github.com/nolik/nolik-cli/internal/index"
)

func sendCmd(a *app) *cobra.Command {
	var sender, wallet string
	var recipients, entries, attachments []string
	var submit bool

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Encrypt a message for one or more recipients, publish it, and anchor it on-chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			senderPub, senderSec, err := resolveSender(a, sender)
			if err != nil {
				return err
			}
			if len(recipients) == 0 {
				return fmt.Errorf("at least one --to recipient is required")
			}

			mi := envelope.MessageInput{SenderPublic: senderPub, SenderSecret: senderSec}
			for _, r := range recipients {
				pk, err := resolveRecipient(a, r)
				if err != nil {
					return err
				}
				mi.Recipients = append(mi.Recipients, pk)
			}
			for _, e := range entries {
				k, v, ok := strings.Cut(e, "=")
				if !ok {
					return fmt.Errorf("--entry must be key=value, got %q", e)
				}
				mi.Entries = append(mi.Entries, envelope.Entry{Key: k, Value: v})
			}
			for _, path := range attachments {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read attachment %q: %w", path, err)
				}
				mi.Blobs = append(mi.Blobs, envelope.Blob{Name: filepath.Base(path), Binary: data})
			}

			batch, otu, err := envelope.Encrypt(mi)
			if err != nil {
				return fmt.Errorf("encrypt message: %w", err)
			}
			defer otu.Zero()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			store := contentstore.New(contentstore.NewIPFSBackend(a.cfg.ContentStoreURL), a.logger)
			cid, err := store.Put(ctx, batch)
			if err != nil {
				return fmt.Errorf("publish batch: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cid: %s\n", cid)

			if !submit {
				return nil
			}
			if wallet == "" {
				return fmt.Errorf("--wallet is required to anchor the message on-chain (or pass --submit=false)")
			}
			walletKP, err := resolveWallet(a, wallet)
			if err != nil {
				return err
			}

			recipientHexes := make([]string, len(mi.Recipients))
			for i, r := range mi.Recipients {
				recipientHexes[i] = chain.AddressHex(r)
			}
			callBytes, err := chain.BuildSendMessage(chain.AddressHex(senderPub), recipientHexes, cid)
			if err != nil {
				return fmt.Errorf("build send_message call: %w", err)
			}

			if err := submitExtrinsic(ctx, a, walletKP, callBytes); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "anchored on-chain")
			return nil
		},
	}

	cmd.Flags().StringVar(&sender, "sender", "", "sender account: alias or \"public:secret\" base58 pair")
	cmd.Flags().StringArrayVar(&recipients, "to", nil, "recipient account: alias or base58 public key (repeatable)")
	cmd.Flags().StringArrayVar(&entries, "entry", nil, "key=value entry (repeatable)")
	cmd.Flags().StringArrayVar(&attachments, "attach", nil, "path to a file to attach (repeatable)")
	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet alias or base58 seed used to sign the anchoring extrinsic")
	cmd.Flags().BoolVar(&submit, "submit", true, "anchor the published CID with a send_message extrinsic")
	cmd.MarkFlagRequired("sender")
	return cmd
}

func receiveCmd(a *app) *cobra.Command {
	var account, cid string

	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Fetch a batch by CID, decrypt it for an account, and save it to the local index",
		RunE: func(cmd *cobra.Command, args []string) error {
			accountPub, accountSec, err := resolveSender(a, account)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			store := contentstore.New(contentstore.NewIPFSBackend(a.cfg.ContentStoreURL), a.logger)
			batch, err := store.Get(ctx, cid)
			if err != nil {
				return fmt.Errorf("fetch batch %s: %w", cid, err)
			}

			msg, err := envelope.Decrypt(batch, accountPub, accountSec)
			if err != nil {
				return fmt.Errorf("decrypt batch %s: %w", cid, err)
			}

			idx := index.NewStore(a.cfg.DataDir, a.index)
			im, err := idx.Append(codec.PublicToBase58(accountPub), msg, cid)
			if err != nil {
				return fmt.Errorf("save to index: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "message #%d from %s\n", im.Index, im.From)
			for _, e := range im.Entries {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", e.Key, e.Value)
			}
			for i, link := range im.FileLinks {
				size := len(msg.Blobs[i].Binary)
				fmt.Fprintf(cmd.OutOrStdout(), "  attachment: %s (%s)\n", link, humanize.Bytes(uint64(size)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "receiving account: alias or \"public:secret\" base58 pair")
	cmd.Flags().StringVar(&cid, "cid", "", "content identifier of the batch to fetch")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("cid")
	return cmd
}

func inboxCmd(a *app) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List the locally indexed messages for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			accountPub, ok := a.accounts.PublicKey(account)
			var accountPublic string
			if ok {
				accountPublic = codec.PublicToBase58(accountPub)
			} else {
				pk, err := codec.Base58ToPublic(account)
				if err != nil {
					return fmt.Errorf("unknown account alias and not a valid base58 public key: %q", account)
				}
				accountPublic = codec.PublicToBase58(pk)
			}

			idx := index.NewStore(a.cfg.DataDir, a.index)
			messages, err := idx.Load(accountPublic)
			if err != nil {
				return fmt.Errorf("load index: %w", err)
			}

			for _, im := range messages {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d  from=%s  hash=%s  entries=%d  files=%d\n",
					im.Index, im.From, im.Hash, len(im.Entries), len(im.FileLinks))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account: alias or base58 public key")
	cmd.MarkFlagRequired("account")
	return cmd
}
