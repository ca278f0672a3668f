// Package assist implements the model-backed reader features: comment and
// page summaries, page Q&A and voice-command interpretation.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"hnreader/internal/hn"
	"hnreader/internal/llm"
	"hnreader/internal/textutil"
	"hnreader/internal/thread"
)

const NoCommentsSummary = "There are no comments to summarize."

var ErrBlankQuestion = errors.New("assist: question cannot be empty")

type Service struct {
	client llm.Client
	loader thread.Loader
	log    logrus.FieldLogger
}

// New builds the service. A nil client makes every model-backed call fail
// with llm.ErrNotConfigured.
func New(client llm.Client, loader thread.Loader, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{client: client, loader: loader, log: logger.WithField("component", "assist")}
}

func (s *Service) Configured() bool { return s.client != nil }

// SummarizeInput carries either page content or comment HTML. PageContent
// wins when both are set; a non-nil empty Comments slice is valid input.
type SummarizeInput struct {
	Comments    []string
	PageContent string
}

func (s *Service) Summarize(ctx context.Context, in SummarizeInput) (string, error) {
	switch {
	case strings.TrimSpace(in.PageContent) != "":
		return s.generate(ctx, llm.Prompt("", pagePrompt(in.PageContent)))
	case in.Comments != nil:
		if len(in.Comments) == 0 {
			return NoCommentsSummary, nil
		}
		texts := make([]string, 0, len(in.Comments))
		for _, c := range in.Comments {
			texts = append(texts, textutil.PlainText(c))
		}
		return s.generate(ctx, llm.Prompt("", commentsPrompt(texts)))
	default:
		return "", &hn.MalformedResponseError{
			Path:   "summarize",
			Reason: "provide either comments (array of strings) or page content (string)",
		}
	}
}

// SummarizeThread summarizes the first page of a story's comments.
func (s *Service) SummarizeThread(ctx context.Context, storyID, limit int) (string, error) {
	first, err := thread.NewSession("", storyID, limit, s.loader).LoadFirstPage(ctx)
	if err != nil {
		return "", err
	}
	comments := make([]string, 0, len(first.Comments))
	for _, c := range first.Comments {
		comments = append(comments, c.Text)
	}
	return s.Summarize(ctx, SummarizeInput{Comments: comments})
}

type AskInput struct {
	PageContent string
	Question    string
	History     []llm.Message
}

// Ask answers a question about the current page. The page context is sent
// as the opening user turn, acknowledged by a canned model turn.
func (s *Service) Ask(ctx context.Context, in AskInput) (string, error) {
	if strings.TrimSpace(in.Question) == "" {
		return "", ErrBlankQuestion
	}
	msgs := make([]llm.Message, 0, len(in.History)+3)
	msgs = append(msgs,
		llm.Message{Role: llm.RoleUser, Text: askInstruction(in.PageContent)},
		llm.Message{Role: llm.RoleModel, Text: askAck},
	)
	for _, m := range in.History {
		if m.Role != llm.RoleModel {
			m.Role = llm.RoleUser
		}
		msgs = append(msgs, m)
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Text: in.Question})
	return s.generate(ctx, llm.Request{Messages: msgs})
}

func (s *Service) generate(ctx context.Context, req llm.Request) (string, error) {
	if s.client == nil {
		return "", llm.ErrNotConfigured
	}
	out, err := s.client.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return strings.TrimSpace(out), nil
}
