package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nolik/nolik-cli/internal/chain"
)

// walletCmd groups wallet identity operations. Wallets are SR25519
// keypairs used only to sign chain extrinsics (spec.md §3), distinct
// from the X25519 account identity used for the message envelope.
func walletCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage the SR25519 signing keypairs used to submit chain transactions",
	}
	cmd.AddCommand(walletGenerateCmd(a))
	return cmd
}

func walletGenerateCmd(a *app) *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new wallet signing keypair",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := chain.GenerateWalletKeypair()
			if err != nil {
				return fmt.Errorf("generate wallet keypair: %w", err)
			}

			if alias != "" {
				a.wallets.setKeypair(alias, kp)
			}

			pub := kp.Public()
			fmt.Fprintf(cmd.OutOrStdout(), "public:  %x\n", pub)
			fmt.Fprintf(cmd.OutOrStdout(), "address: %s\n", chain.SS58Address(pub))
			fmt.Fprintf(cmd.OutOrStdout(), "hashed:  %s\n", chain.AddressHex(pub))
			if alias != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "alias:   %s (valid for this invocation only)\n", alias)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "register the generated wallet under this alias for later commands in this invocation")
	return cmd
}
