package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nolik/nolik-cli/internal/codec"
	"github.com/nolik/nolik-cli/internal/sealedbox"
)

// accountCmd groups account identity operations. Accounts are X25519
// keypairs (spec.md §3); persisting them under a named alias across
// process invocations is explicitly out of scope (spec.md §1), so
// `generate` prints the keypair and, with --alias, registers it in the
// in-memory account store, which lasts only until this command's
// process exits.
func accountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the long-term X25519 identity keypairs used to address messages",
	}
	cmd.AddCommand(accountGenerateCmd(a))
	return cmd
}

func accountGenerateCmd(a *app) *cobra.Command {
	var alias, seedB58 string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new account keypair, or derive one deterministically from a seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			var pub, sec [32]byte
			var err error

			if seedB58 != "" {
				seed, err := codec.Base58ToSeed(seedB58)
				if err != nil {
					return fmt.Errorf("invalid seed: %w", err)
				}
				pub, sec, err = sealedbox.KeypairFromSeed(seed)
				if err != nil {
					return fmt.Errorf("derive keypair from seed: %w", err)
				}
			} else {
				pub, sec, err = sealedbox.NewKeypair()
				if err != nil {
					return fmt.Errorf("generate keypair: %w", err)
				}
			}

			if alias != "" {
				a.accounts.set(alias, pub, sec)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "public:  %s\n", codec.PublicToBase58(pub))
			fmt.Fprintf(cmd.OutOrStdout(), "secret:  %s\n", codec.SecretToBase58(sec))
			if alias != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "alias:   %s (valid for this invocation only)\n", alias)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "register the generated account under this alias in this process's in-memory account store")
	cmd.Flags().StringVar(&seedB58, "seed", "", "base58-encoded 32-byte seed to derive the keypair from deterministically")
	return cmd
}
