package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nolik/nolik-cli/internal/chain"
)

// submitExtrinsic resolves the signer's nonce and runtime metadata,
// builds and signs an extrinsic around callBytes, and submits it
// through a correlator that watches the chain for its inclusion and
// dispatch outcome (spec §5, §8.4).
func submitExtrinsic(ctx context.Context, a *app, signer *chain.WalletKeypair, callBytes []byte) error {
	meta, err := chain.FetchMeta(ctx, a.cfg.NodeURL, chain.SS58Address(signer.Public()))
	if err != nil {
		return fmt.Errorf("fetch chain metadata: %w", err)
	}

	extrinsicHex, err := chain.BuildSignedExtrinsic(signer, callBytes, meta)
	if err != nil {
		return fmt.Errorf("sign extrinsic: %w", err)
	}

	node, err := chain.Dial(ctx, a.cfg.NodeURL)
	if err != nil {
		return fmt.Errorf("dial node: %w", err)
	}
	defer node.Close()

	correlator, err := chain.NewCorrelator(ctx, a.cfg.NodeURL, node)
	if err != nil {
		return fmt.Errorf("open event correlator: %w", err)
	}
	defer correlator.Close()

	if err := correlator.Submit(ctx, extrinsicHex); err != nil {
		return fmt.Errorf("submit extrinsic: %w", err)
	}
	return nil
}

func chainSubmitCmd(a *app, use, short string, build func(cmd *cobra.Command) (callBytes []byte, wallet string, err error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			callBytes, walletSpec, err := build(cmd)
			if err != nil {
				return err
			}
			signer, err := resolveWallet(a, walletSpec)
			if err != nil {
				return err
			}
			if err := submitExtrinsic(cmd.Context(), a, signer, callBytes); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "submitted")
			return nil
		},
	}
}

func ownerCmd(a *app) *cobra.Command {
	group := &cobra.Command{
		Use:   "owner",
		Short: "Manage Nolik pallet owners and delegates",
	}

	var wallet, target string
	var delegate bool
	add := chainSubmitCmd(a, "add", "Register an address as an owner or delegate", func(cmd *cobra.Command) ([]byte, string, error) {
		pub, err := resolveRecipient(a, target)
		if err != nil {
			return nil, "", err
		}
		role := chain.RoleOwner
		if delegate {
			role = chain.RoleDelegate
		}
		callBytes, err := chain.BuildAddOwner(chain.AddressHex(pub), role)
		if err != nil {
			return nil, "", fmt.Errorf("build add_owner call: %w", err)
		}
		return callBytes, wallet, nil
	})
	add.Flags().StringVar(&wallet, "wallet", "", "wallet alias or base58 seed that signs this call (must itself hold owner rights)")
	add.Flags().StringVar(&target, "address", "", "account alias or base58 public key to register")
	add.Flags().BoolVar(&delegate, "delegate", false, "register as a delegate instead of a full owner")
	add.MarkFlagRequired("wallet")
	add.MarkFlagRequired("address")
	group.AddCommand(add)
	return group
}

func whitelistCmd(a *app) *cobra.Command {
	var wallet, owner, target string
	cmd := chainSubmitCmd(a, "whitelist", "Add an address to another address's whitelist", func(cmd *cobra.Command) ([]byte, string, error) {
		ownerPub, err := resolveRecipient(a, owner)
		if err != nil {
			return nil, "", err
		}
		targetPub, err := resolveRecipient(a, target)
		if err != nil {
			return nil, "", err
		}
		callBytes, err := chain.BuildAddToWhitelist(chain.AddressHex(ownerPub), chain.AddressHex(targetPub))
		if err != nil {
			return nil, "", fmt.Errorf("build add_to_whitelist call: %w", err)
		}
		return callBytes, wallet, nil
	})
	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet alias or base58 seed that signs this call")
	cmd.Flags().StringVar(&owner, "owner", "", "account whose whitelist is being modified")
	cmd.Flags().StringVar(&target, "address", "", "account alias or base58 public key to whitelist")
	cmd.MarkFlagRequired("wallet")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("address")
	return cmd
}

func blacklistCmd(a *app) *cobra.Command {
	var wallet, owner, target string
	cmd := chainSubmitCmd(a, "blacklist", "Add an address to another address's blacklist", func(cmd *cobra.Command) ([]byte, string, error) {
		ownerPub, err := resolveRecipient(a, owner)
		if err != nil {
			return nil, "", err
		}
		targetPub, err := resolveRecipient(a, target)
		if err != nil {
			return nil, "", err
		}
		callBytes, err := chain.BuildAddToBlacklist(chain.AddressHex(ownerPub), chain.AddressHex(targetPub))
		if err != nil {
			return nil, "", fmt.Errorf("build add_to_blacklist call: %w", err)
		}
		return callBytes, wallet, nil
	})
	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet alias or base58 seed that signs this call")
	cmd.Flags().StringVar(&owner, "owner", "", "account whose blacklist is being modified")
	cmd.Flags().StringVar(&target, "address", "", "account alias or base58 public key to blacklist")
	cmd.MarkFlagRequired("wallet")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("address")
	return cmd
}

func balanceCmd(a *app) *cobra.Command {
	group := &cobra.Command{
		Use:   "balance",
		Short: "Move funds between wallets",
	}

	var wallet, dest string
	var valuePlanck uint64
	transfer := chainSubmitCmd(a, "transfer", "Submit a Balances::transfer extrinsic", func(cmd *cobra.Command) ([]byte, string, error) {
		destPub, err := resolveRecipient(a, dest)
		if err != nil {
			return nil, "", err
		}
		callBytes, err := chain.BuildTransfer(destPub, valuePlanck)
		if err != nil {
			return nil, "", fmt.Errorf("build transfer call: %w", err)
		}
		return callBytes, wallet, nil
	})
	transfer.Flags().StringVar(&wallet, "wallet", "", "wallet alias or base58 seed that signs this call")
	transfer.Flags().StringVar(&dest, "to", "", "destination account alias or base58 public key")
	transfer.Flags().Uint64Var(&valuePlanck, "value", 0, "amount to transfer, in planck")
	transfer.MarkFlagRequired("wallet")
	transfer.MarkFlagRequired("to")
	transfer.MarkFlagRequired("value")
	group.AddCommand(transfer)
	return group
}
