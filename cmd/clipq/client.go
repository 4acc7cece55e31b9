package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipq/internal/crypto"
	"go.klb.dev/clipq/internal/ipc"
	"go.klb.dev/clipq/internal/logging"
	"go.klb.dev/clipq/internal/message"
	"go.klb.dev/clipq/internal/wire"
)

// requestTimeout bounds one request/response exchange with the daemon.
const requestTimeout = 10 * time.Second

// client is one CLI invocation's connection settings.
type client struct {
	v      *viper.Viper
	socket string
	box    *crypto.Box
	json   bool
	out    io.Writer
}

// newClientCmd builds a command that talks to the running daemon. Extra
// flags added to the returned command are readable through c.v.
func newClientCmd(use, short string, args cobra.PositionalArgs, run func(c *client, args []string) error) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Args:    args,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(v, logging.Client)
			box, err := crypto.NewBox(v.GetString("token"))
			if err != nil {
				return err
			}
			return run(&client{
				v:      v,
				socket: v.GetString("socket"),
				box:    box,
				json:   v.GetBool("json"),
				out:    cmd.OutOrStdout(),
			}, args)
		},
	}
	addCommonFlags(cmd, socketFlags|logFlags)
	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

// call performs one exchange and turns an error response into an error.
func (c *client) call(req *message.Request) (*message.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	conn, err := ipc.Dial(ctx, c.socket)
	if err != nil {
		return nil, fmt.Errorf("no clipq daemon at %s (start one with \"clipq server\"): %w", c.socket, err)
	}
	wc := wire.New(conn, c.box)
	defer wc.Close()

	if err := wc.WriteMsg(req); err != nil {
		return nil, fmt.Errorf("send %s: %w", req.Op, err)
	}
	wc.SetReadDeadline(requestTimeout)
	var resp message.Response
	if err := wc.ReadMsg(&resp); err != nil {
		return nil, fmt.Errorf("read %s response: %w", req.Op, err)
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// emit prints v as indented JSON when --json is set and reports whether it
// did.
func (c *client) emit(v any) bool {
	if !c.json {
		return false
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
	return true
}

func (c *client) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// resolve expands id prefixes, as printed by list and history, into full ids
// by matching them against the listings the given ops return.
func (c *client) resolve(args []string, from ...message.Op) ([]string, error) {
	var known []string
	loaded := false

	out := make([]string, 0, len(args))
	for _, arg := range args {
		if _, err := uuid.Parse(arg); err == nil {
			out = append(out, arg)
			continue
		}
		if !loaded {
			for _, op := range from {
				resp, err := c.call(&message.Request{Op: op})
				if err != nil {
					return nil, err
				}
				for _, it := range resp.Items {
					known = append(known, it.ID)
				}
				for _, e := range resp.Entries {
					known = append(known, e.ID)
				}
				for _, cat := range resp.Categories {
					known = append(known, cat.ID)
				}
			}
			loaded = true
		}
		id, err := matchPrefix(arg, known)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func matchPrefix(prefix string, ids []string) (string, error) {
	var match string
	for _, id := range ids {
		if !strings.HasPrefix(id, prefix) || id == match {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("id prefix %q is ambiguous", prefix)
		}
		match = id
	}
	if match == "" {
		return "", fmt.Errorf("no item matches %q", prefix)
	}
	return match, nil
}

// readInput returns args joined by spaces, or stdin when there are none.
func readInput(args []string) ([]byte, error) {
	if len(args) > 0 {
		return []byte(strings.Join(args, " ")), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}
