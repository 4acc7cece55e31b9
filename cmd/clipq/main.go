// clipq: clipboard working queue and history.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipq",
		Short: "Clipboard working queue and history",
		Long: `clipq watches the system clipboard and keeps every copy in two places:
a bounded working queue of items waiting to be pasted (oldest first), and a
searchable history that is pruned after a retention period.

Run "clipq server" once per login session. Every other command talks to the
running daemon over a local socket.

Config file search order (first found wins):
  /etc/clipq/clipq.toml
  $HOME/.config/clipq/clipq.toml
  path supplied via --config

All flags can be set via CLIPQ_<FLAG> env vars or config-file keys.
See "clipq server --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServerCmd(),
		newAddCmd(),
		newNextCmd(),
		newAllCmd(),
		newPasteCmd(),
		newListCmd(),
		newRemoveCmd(),
		newUndoCmd(),
		newMoveCmd(),
		newTopCmd(),
		newReverseCmd(),
		newClearCmd(),
		newHistoryCmd(),
		newPinCmd(),
		newFavoriteCmd(),
		newCategoryCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipq %s\n", Version)
		},
	}
}
