package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"go.klb.dev/clipq/internal/history"
	"go.klb.dev/clipq/internal/model"
)

const shortIDLen = 8

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func flags(pinned, favorite bool) string {
	s := ""
	if pinned {
		s += "P"
	}
	if favorite {
		s += "F"
	}
	if s == "" {
		return "-"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printItems(w io.Writer, items []model.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Queue is empty.")
		return
	}
	now := time.Now()
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "#\tID\tTYPE\tFLAGS\tSOURCE\tCAPTURED\tPREVIEW\n")
	for i, it := range items {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i, shortID(it.ID), it.Type, flags(it.IsPinned, it.IsFavorite),
			orDash(it.SourceAppName), it.Age(now), it.ShortPreview(),
		)
	}
	_ = tw.Flush()
}

func printEntries(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history entries.")
		return
	}
	now := time.Now()
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ID\tTYPE\tFLAGS\tCATEGORY\tCAPTURED\tPASTED\tPREVIEW\n")
	for _, e := range entries {
		pasted := "-"
		if e.Pasted() {
			pasted = humanize.RelTime(e.LastPastedAt, now, "ago", "from now")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(e.ID), e.Type, flags(e.IsPinned, e.IsFavorite),
			orDash(shortID(e.CategoryID)),
			humanize.RelTime(e.Timestamp, now, "ago", "from now"),
			pasted, e.Item().ShortPreview(),
		)
	}
	_ = tw.Flush()
}

func printCategories(w io.Writer, categories []model.Category) {
	if len(categories) == 0 {
		fmt.Fprintln(w, "No categories.")
		return
	}
	tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "ID\tNAME\tCOLOR\n")
	for _, c := range categories {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", shortID(c.ID), c.Name, c.ColorHex)
	}
	_ = tw.Flush()
}
