// Command hncli reads Hacker News from the terminal: category listings,
// paged comment threads, user activity and search.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"hnreader/internal/feed"
	"hnreader/internal/hn"
	"hnreader/internal/thread"
)

type options struct {
	api      string
	category string
	limit    int
	story    int
	pages    int
	user     string
	search   string
	format   string
	timeout  time.Duration
	verbose  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, defaultFormat()); err != nil {
		fmt.Fprintln(os.Stderr, "hncli:", err)
		os.Exit(1)
	}
}

func defaultFormat() string {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return "table"
	}
	return "json"
}

func parseFlags(args []string, defFormat string) (*options, error) {
	fs := flag.NewFlagSet("hncli", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.api, "api", hn.DefaultBaseURL, "HN API base URL")
	fs.StringVar(&o.category, "category", "top", "story category: top, new, best, ask, show, job")
	fs.IntVar(&o.limit, "limit", 30, "maximum stories or submissions to show")
	fs.IntVar(&o.story, "story", 0, "show the comment thread of this story")
	fs.IntVar(&o.pages, "pages", 1, "comment pages to load with -story")
	fs.StringVar(&o.user, "user", "", "show a user's profile and recent submissions")
	fs.StringVar(&o.search, "search", "", "search recent stories")
	fs.StringVar(&o.format, "format", defFormat, "output format: table or json")
	fs.DurationVar(&o.timeout, "timeout", 30*time.Second, "overall request timeout")
	fs.BoolVar(&o.verbose, "v", false, "log upstream requests")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.format = strings.ToLower(strings.TrimSpace(o.format))
	if o.format != "table" && o.format != "json" {
		return nil, fmt.Errorf("invalid -format %q", o.format)
	}
	if o.limit <= 0 {
		return nil, errors.New("-limit must be positive")
	}
	if o.pages <= 0 {
		o.pages = 1
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer, defFormat string) error {
	o, err := parseFlags(args, defFormat)
	if err != nil {
		return err
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	if o.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	svc := feed.New(hn.NewClient(hn.Options{BaseURL: o.api, Logger: log}), feed.WithLogger(log), feed.WithMaxConcurrency(16))
	out := &printer{w: stdout, format: o.format, now: time.Now()}

	switch {
	case o.story > 0:
		return showThread(ctx, svc, o, out)
	case o.user != "":
		act, err := svc.GetUserActivity(ctx, o.user, o.limit)
		if err != nil {
			return err
		}
		return out.activity(act)
	case strings.TrimSpace(o.search) != "":
		hits, err := svc.Search(ctx, o.search, o.limit)
		if err != nil {
			return err
		}
		return out.stories(hits)
	default:
		cat, err := hn.ParseCategory(o.category)
		if err != nil {
			return err
		}
		stories, err := svc.GetCategoryStories(ctx, cat, o.limit)
		if err != nil {
			return err
		}
		return out.stories(stories)
	}
}

func showThread(ctx context.Context, svc *feed.Service, o *options, out *printer) error {
	s := thread.NewSession("cli", o.story, thread.DefaultPageSize, svc)
	defer s.Close()

	first, err := s.LoadFirstPage(ctx)
	if err != nil {
		return err
	}
	hasMore := first.HasMore
	for page := 1; page < o.pages && hasMore; page++ {
		next, err := s.LoadNextPage(ctx)
		if err != nil {
			return err
		}
		hasMore = next.HasMore
	}
	return out.thread(first.Story, s.Comments(), first.TotalComments, hasMore)
}
