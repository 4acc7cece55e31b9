package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"go.klb.dev/clipq/internal/message"
	"go.klb.dev/clipq/internal/model"
)

func newAddCmd() *cobra.Command {
	cmd := newClientCmd("add [text...]", "Queue text from the arguments or stdin (or an image with --image)",
		cobra.ArbitraryArgs, runAdd)
	f := cmd.Flags()
	f.Bool("image", false, "treat stdin as an encoded image (png, jpeg, gif)")
	f.String("type", "", "content type: text|url|other (default: detected)")
	f.String("source-app", "clipq-cli", "source application recorded with the item")
	f.String("category", "", "category id or prefix")
	return cmd
}

func runAdd(c *client, args []string) error {
	data, err := readInput(args)
	if err != nil {
		return err
	}
	req := &message.Request{
		Op:        message.OpAdd,
		SourceApp: c.v.GetString("source-app"),
		Type:      model.Type(c.v.GetString("type")),
	}
	if c.v.GetBool("image") {
		req.Image = data
	} else {
		req.Content = strings.TrimSpace(string(data))
		if req.Content == "" {
			return nil
		}
	}
	if cat := c.v.GetString("category"); cat != "" {
		ids, err := c.resolve([]string{cat}, message.OpCategories)
		if err != nil {
			return err
		}
		req.CategoryID = ids[0]
	}

	resp, err := c.call(req)
	if err != nil || c.emit(resp) {
		return err
	}
	if !resp.Added {
		c.printf("not queued (matches the last paste or an existing item)\n")
		return nil
	}
	c.printf("queued %s\n", shortID(resp.Items[0].ID))
	return nil
}

// addPlaceFlag lets the paste commands skip the daemon's clipboard write.
func addPlaceFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("no-place", false, "do not put the result on the system clipboard")
}

// printPaste writes the pasted content to stdout.
func printPaste(c *client, resp *message.Response) error {
	if c.emit(resp) {
		return nil
	}
	if len(resp.Items) == 0 {
		fmt.Fprintln(os.Stderr, "queue is empty")
		return nil
	}
	c.printf("%s\n", resp.Content)
	return nil
}

func newNextCmd() *cobra.Command {
	cmd := newClientCmd("next", "Paste the oldest queued item", cobra.NoArgs,
		func(c *client, _ []string) error {
			resp, err := c.call(&message.Request{Op: message.OpPasteNext, Place: !c.v.GetBool("no-place")})
			if err != nil {
				return err
			}
			return printPaste(c, resp)
		})
	addPlaceFlag(cmd)
	return cmd
}

func newAllCmd() *cobra.Command {
	cmd := newClientCmd("all", "Paste every queued item, joined by newlines, and empty the queue", cobra.NoArgs,
		func(c *client, _ []string) error {
			resp, err := c.call(&message.Request{Op: message.OpPasteAll, Place: !c.v.GetBool("no-place")})
			if err != nil {
				return err
			}
			return printPaste(c, resp)
		})
	addPlaceFlag(cmd)
	return cmd
}

func newPasteCmd() *cobra.Command {
	cmd := newClientCmd("paste ID...", "Paste the selected items in queue order (undoable)", cobra.MinimumNArgs(1),
		func(c *client, args []string) error {
			ids, err := c.resolve(args, message.OpQueue)
			if err != nil {
				return err
			}
			resp, err := c.call(&message.Request{
				Op:    message.OpPasteSelected,
				IDs:   ids,
				Place: !c.v.GetBool("no-place"),
			})
			if err != nil {
				return err
			}
			return printPaste(c, resp)
		})
	addPlaceFlag(cmd)
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := newClientCmd("list", "Show the working queue, next item first", cobra.NoArgs,
		func(c *client, _ []string) error {
			resp, err := c.call(&message.Request{Op: message.OpQueue})
			if err != nil || c.emit(resp) {
				return err
			}
			printItems(c.out, resp.Items)
			if resp.CanUndo {
				c.printf("\n(undo available)\n")
			}
			return nil
		})
	cmd.Aliases = []string{"ls"}
	return cmd
}

func newRemoveCmd() *cobra.Command {
	cmd := newClientCmd("rm [ID...]", "Discard queued items without pasting them", cobra.ArbitraryArgs,
		func(c *client, args []string) error {
			if at := c.v.GetInt("at"); at >= 0 {
				resp, err := c.call(&message.Request{Op: message.OpRemoveAt, Index: at})
				if err != nil || c.emit(resp) {
					return err
				}
				printItems(c.out, resp.Items)
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("give item ids or --at INDEX")
			}
			ids, err := c.resolve(args, message.OpQueue)
			if err != nil {
				return err
			}
			resp, err := c.call(&message.Request{Op: message.OpRemove, IDs: ids})
			if err != nil || c.emit(resp) {
				return err
			}
			c.printf("removed %d item(s)\n", len(resp.Items))
			return nil
		})
	cmd.Flags().Int("at", -1, "remove the item at this queue index instead")
	return cmd
}

func newUndoCmd() *cobra.Command {
	return newClientCmd("undo", "Put the items of the last selective paste back at the end of the queue", cobra.NoArgs,
		func(c *client, _ []string) error {
			resp, err := c.call(&message.Request{Op: message.OpUndo})
			if err != nil || c.emit(resp) {
				return err
			}
			if len(resp.Items) == 0 {
				c.printf("nothing to undo\n")
				return nil
			}
			c.printf("restored %d item(s)\n", len(resp.Items))
			return nil
		})
}

func newMoveCmd() *cobra.Command {
	return newClientCmd("mv FROM TO", "Move the item at index FROM to index TO", cobra.ExactArgs(2),
		func(c *client, args []string) error {
			from, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("from: %w", err)
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("to: %w", err)
			}
			return c.queueCall(&message.Request{Op: message.OpMove, From: from, To: to})
		})
}

func newTopCmd() *cobra.Command {
	return newClientCmd("top ID", "Make an item the next one to paste", cobra.ExactArgs(1),
		func(c *client, args []string) error {
			ids, err := c.resolve(args, message.OpQueue)
			if err != nil {
				return err
			}
			return c.queueCall(&message.Request{Op: message.OpMoveToTop, ID: ids[0]})
		})
}

func newReverseCmd() *cobra.Command {
	return newClientCmd("reverse", "Reverse the paste order", cobra.NoArgs,
		func(c *client, _ []string) error {
			return c.queueCall(&message.Request{Op: message.OpReverse})
		})
}

func newClearCmd() *cobra.Command {
	return newClientCmd("clear", "Empty the working queue (history is kept)", cobra.NoArgs,
		func(c *client, _ []string) error {
			return c.queueCall(&message.Request{Op: message.OpClear})
		})
}

// queueCall runs a queue edit and prints the resulting queue.
func (c *client) queueCall(req *message.Request) error {
	resp, err := c.call(req)
	if err != nil || c.emit(resp) {
		return err
	}
	printItems(c.out, resp.Items)
	return nil
}
