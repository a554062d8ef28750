// Package main provides the CLI entry point for the nolik client.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nolik/nolik-cli/internal/logging"
	"github.com/nolik/nolik-cli/internal/nodeconfig"
)

// Version is set at build time via ldflags.
var Version = "dev"

// app bundles the process-lifetime state every subcommand shares: the
// ephemeral account/wallet stores (spec.md §1 models persistence as an
// external collaborator the core never implements), the config shape,
// and the logger. One process is one command invocation; accounts and
// wallets created with `account generate`/`wallet generate` are held in
// memory only, so their aliases are gone when that command exits (see
// the `demo` command for a full send/receive walkthrough in one shot).
type app struct {
	cfg      *nodeconfig.ConfigFile
	accounts *sessionAccountStore
	wallets  *sessionWalletStore
	index    *fileIndexHook
	logger   *slog.Logger
}

func newApp(nodeURL, storeURL, dataDir, logLevel, logFormat string) *app {
	cfg := nodeconfig.Default()
	if nodeURL != "" {
		cfg.NodeURL = nodeURL
	}
	if storeURL != "" {
		cfg.ContentStoreURL = storeURL
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return &app{
		cfg:      cfg,
		accounts: newSessionAccountStore(),
		wallets:  newSessionWalletStore(),
		index:    newFileIndexHook(cfg.DataDir),
		logger:   logging.NewLogger(logLevel, logFormat),
	}
}

func main() {
	var nodeURL, storeURL, dataDir, logLevel, logFormat string

	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "nolik",
		Short:   "nolik - decentralized messaging client",
		Version: Version,
		Long: `nolik is a command-line client for a decentralized messaging
service: compose encrypted, sender-anonymous messages addressed to one
or more recipients, publish them to a content-addressed store, and
anchor delivery with a signed chain transaction.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			built := newApp(nodeURL, storeURL, dataDir, logLevel, logFormat)
			*a = *built
		},
	}

	rootCmd.PersistentFlags().StringVar(&nodeURL, "node-url", "", "chain node WebSocket URL (default: "+nodeconfig.Default().NodeURL+")")
	rootCmd.PersistentFlags().StringVar(&storeURL, "store-url", "", "content store HTTP endpoint (default: "+nodeconfig.Default().ContentStoreURL+")")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "local data directory (default: "+nodeconfig.Default().DataDir+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text, json")

	rootCmd.AddGroup(&cobra.Group{ID: "identity", Title: "Identity:"})
	rootCmd.AddGroup(&cobra.Group{ID: "messaging", Title: "Messaging:"})
	rootCmd.AddGroup(&cobra.Group{ID: "chain", Title: "Chain Administration:"})

	account := accountCmd(a)
	account.GroupID = "identity"
	rootCmd.AddCommand(account)

	wallet := walletCmd(a)
	wallet.GroupID = "identity"
	rootCmd.AddCommand(wallet)

	send := sendCmd(a)
	send.GroupID = "messaging"
	rootCmd.AddCommand(send)

	receive := receiveCmd(a)
	receive.GroupID = "messaging"
	rootCmd.AddCommand(receive)

	inbox := inboxCmd(a)
	inbox.GroupID = "messaging"
	rootCmd.AddCommand(inbox)

	demo := demoCmd(a)
	demo.GroupID = "messaging"
	rootCmd.AddCommand(demo)

	owner := ownerCmd(a)
	owner.GroupID = "chain"
	rootCmd.AddCommand(owner)

	whitelist := whitelistCmd(a)
	whitelist.GroupID = "chain"
	rootCmd.AddCommand(whitelist)

	blacklist := blacklistCmd(a)
	blacklist.GroupID = "chain"
	rootCmd.AddCommand(blacklist)

	balance := balanceCmd(a)
	balance.GroupID = "chain"
	rootCmd.AddCommand(balance)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
