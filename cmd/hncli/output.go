package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"hnreader/internal/feed"
	"hnreader/internal/hn"
	"hnreader/internal/textutil"
)

type printer struct {
	w      io.Writer
	format string
	now    time.Time
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) stories(items []*hn.Item) error {
	if p.format == "json" {
		return p.json(map[string]any{"stories": items})
	}
	if len(items) == 0 {
		_, err := fmt.Fprintln(p.w, "No stories.")
		return err
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPOINTS\tCOMMENTS\tAGE\tTITLE\tDOMAIN")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			it.ID,
			textutil.CompactNumber(it.Score),
			textutil.CompactNumber(it.Descendants),
			textutil.TimeAgo(it.Time, p.now),
			textutil.Truncate(it.Title, 70),
			textutil.Domain(it.URL),
		)
	}
	return tw.Flush()
}

func (p *printer) thread(story *hn.Item, comments []*hn.Item, total int, hasMore bool) error {
	if p.format == "json" {
		return p.json(map[string]any{
			"story":         story,
			"comments":      comments,
			"totalComments": total,
			"hasMore":       hasMore,
		})
	}
	fmt.Fprintf(p.w, "%s\n%s points by %s %s | %d comments\n",
		story.Title, textutil.CompactNumber(story.Score), story.By, textutil.TimeAgo(story.Time, p.now), total)
	if story.URL != "" {
		fmt.Fprintln(p.w, story.URL)
	}
	if story.Text != "" {
		fmt.Fprintf(p.w, "\n%s\n", textutil.PlainText(story.Text))
	}
	if len(comments) == 0 {
		_, err := fmt.Fprintln(p.w, "\nNo comments yet.")
		return err
	}
	for _, c := range comments {
		fmt.Fprintf(p.w, "\n%s %s", c.By, textutil.TimeAgo(c.Time, p.now))
		if n := len(c.Kids); n > 0 {
			fmt.Fprintf(p.w, " (%d replies)", n)
		}
		fmt.Fprintf(p.w, "\n%s\n", indent(textutil.PlainText(c.Text), "  "))
	}
	if hasMore {
		fmt.Fprintf(p.w, "\n%d of %d comments shown; raise -pages for more.\n", len(comments), total)
	}
	return nil
}

func (p *printer) activity(act *feed.UserActivity) error {
	if p.format == "json" {
		return p.json(act)
	}
	u := act.User
	fmt.Fprintf(p.w, "%s  karma %s  joined %s\n", u.ID, textutil.CompactNumber(u.Karma), textutil.TimeAgo(u.Created, p.now))
	if u.About != "" {
		fmt.Fprintf(p.w, "%s\n", textutil.PlainText(u.About))
	}
	fmt.Fprintln(p.w)
	return p.stories(act.Submissions)
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
