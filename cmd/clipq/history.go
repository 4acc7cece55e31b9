package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.klb.dev/clipq/internal/message"
)

// itemSources are the listings an id prefix may come from: the queue and
// every loaded history view.
var itemSources = []message.Op{message.OpQueue, message.OpWindow, message.OpPinned, message.OpFavorites}

func newHistoryCmd() *cobra.Command {
	cmd := newClientCmd("history", "Show captured history, newest first", cobra.NoArgs, runHistory)
	cmd.Long = `Shows the first page of history, optionally filtered by --search. The match
ignores case and diacritics ("cafe" finds "Café"). --more loads further pages.
Unpinned entries older than the retention period are pruned on every reload.`

	f := cmd.Flags()
	f.String("search", "", "only entries whose content contains this text")
	f.Int("more", 0, "load this many further pages")
	f.Bool("pinned", false, "show pinned entries")
	f.Bool("favorites", false, "show favorite entries")
	f.Bool("recent", false, "show the most recently pasted entries")

	cmd.AddCommand(newHistoryRemoveCmd(), newHistoryClearCmd())
	return cmd
}

func runHistory(c *client, _ []string) error {
	var req *message.Request
	switch {
	case c.v.GetBool("pinned"):
		req = &message.Request{Op: message.OpPinned}
	case c.v.GetBool("favorites"):
		req = &message.Request{Op: message.OpFavorites}
	case c.v.GetBool("recent"):
		req = &message.Request{Op: message.OpRecent}
	default:
		req = &message.Request{Op: message.OpHistory, Query: c.v.GetString("search")}
	}

	resp, err := c.call(req)
	if err != nil {
		return err
	}
	if more := c.v.GetInt("more"); more > 0 && req.Op == message.OpHistory && resp.CanLoadMore {
		if resp, err = c.call(&message.Request{Op: message.OpLoadMore, Pages: more}); err != nil {
			return err
		}
	}
	if c.emit(resp) {
		return nil
	}

	printEntries(c.out, resp.Entries)
	if resp.CanLoadMore {
		c.printf("\n(more available: --more N)\n")
	}
	return nil
}

func newHistoryRemoveCmd() *cobra.Command {
	return newClientCmd("rm ID...", "Delete history entries (queued copies stay queued)", cobra.MinimumNArgs(1),
		func(c *client, args []string) error {
			ids, err := c.resolve(args, message.OpWindow, message.OpPinned, message.OpFavorites)
			if err != nil {
				return err
			}
			if _, err := c.call(&message.Request{Op: message.OpHistoryRemove, IDs: ids}); err != nil {
				return err
			}
			c.printf("deleted %d entr(ies)\n", len(ids))
			return nil
		})
}

func newHistoryClearCmd() *cobra.Command {
	cmd := newClientCmd("clear", "Delete the whole history, pinned entries included", cobra.NoArgs,
		func(c *client, _ []string) error {
			if !c.v.GetBool("yes") {
				return fmt.Errorf("refusing to delete all history without --yes")
			}
			if _, err := c.call(&message.Request{Op: message.OpHistoryClear}); err != nil {
				return err
			}
			c.printf("history cleared\n")
			return nil
		})
	cmd.Flags().Bool("yes", false, "confirm deleting every entry")
	return cmd
}

func newPinCmd() *cobra.Command {
	return newFlagCmd("pin", "Pin an item so pruning never removes it", message.OpPin)
}

func newFavoriteCmd() *cobra.Command {
	return newFlagCmd("fav", "Mark an item as favorite", message.OpFavorite)
}

// newFlagCmd builds pin/fav: the flag is applied to the history entry and to
// the queued copy, whichever exist.
func newFlagCmd(use, short string, op message.Op) *cobra.Command {
	cmd := newClientCmd(use+" ID", short, cobra.ExactArgs(1),
		func(c *client, args []string) error {
			ids, err := c.resolve(args, itemSources...)
			if err != nil {
				return err
			}
			value := !c.v.GetBool("off")
			if _, err := c.call(&message.Request{Op: op, ID: ids[0], Value: value}); err != nil {
				return err
			}
			state := "set"
			if !value {
				state = "cleared"
			}
			c.printf("%s %s on %s\n", use, state, shortID(ids[0]))
			return nil
		})
	cmd.Flags().Bool("off", false, "clear the flag instead")
	return cmd
}
