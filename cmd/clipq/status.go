package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go.klb.dev/clipq/internal/message"
)

func newStatusCmd() *cobra.Command {
	cmd := newClientCmd("status", "Show daemon state and preferences", cobra.NoArgs, runStatus)
	cmd.Long = `Displays the working queue size, the loaded history views and the
preferences the daemon is currently applying.`
	return cmd
}

func runStatus(c *client, _ []string) error {
	resp, err := c.call(&message.Request{Op: message.OpStatus})
	if err != nil {
		return err
	}
	st := resp.Status
	if c.emit(st) {
		return nil
	}

	w := tabwriter.NewWriter(c.out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Socket:\t%s\n", c.socket)
	fmt.Fprintf(w, "Queue:\t%d item(s)\n", st.QueueLen)
	fmt.Fprintf(w, "Undo:\t%t\n", st.CanUndo)
	fmt.Fprintf(w, "History loaded:\t%d\n", st.Loaded)
	if st.Query != "" {
		fmt.Fprintf(w, "Search:\t%q\n", st.Query)
	}
	fmt.Fprintf(w, "Pinned:\t%d\n", st.Pinned)
	fmt.Fprintf(w, "Favorites:\t%d\n", st.Favorites)
	fmt.Fprintf(w, "Categories:\t%d\n", st.Categories)
	fmt.Fprintf(w, "\t\n")
	fmt.Fprintf(w, "Max queue size:\t%d\n", st.Settings.MaxQueueSize)
	fmt.Fprintf(w, "Retention:\t%d day(s)\n", st.Settings.HistoryRetentionDays)
	fmt.Fprintf(w, "Skip duplicates:\t%t\n", st.Settings.SkipDuplicates)
	fmt.Fprintf(w, "History enabled:\t%t\n", st.Settings.HistoryEnabled)
	return w.Flush()
}
