package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"hnreader/internal/assist"
	"hnreader/internal/llm"
)

func (h *Handler) mountAssist(mux *http.ServeMux, opts []connect.HandlerOption) {
	p := func(m string) string { return Procedure(AssistServiceName, m) }
	unary(mux, p("Summarize"), h.summarize, opts)
	unary(mux, p("SummarizeThread"), h.summarizeThread, opts)
	unary(mux, p("Ask"), h.ask, opts)
	unary(mux, p("Interpret"), h.interpret, opts)
}

func (h *Handler) summarize(ctx context.Context, req *SummarizeRequest) (*TextResponse, error) {
	text, err := h.assist.Summarize(ctx, assist.SummarizeInput{Comments: req.Comments, PageContent: req.PageContent})
	if err != nil {
		return nil, err
	}
	return &TextResponse{Text: text}, nil
}

func (h *Handler) summarizeThread(ctx context.Context, req *SummarizeThreadRequest) (*TextResponse, error) {
	text, err := h.assist.SummarizeThread(ctx, req.StoryID, req.Limit)
	if err != nil {
		return nil, err
	}
	return &TextResponse{Text: text}, nil
}

func (h *Handler) ask(ctx context.Context, req *AskRequest) (*TextResponse, error) {
	history := make([]llm.Message, 0, len(req.History))
	for _, t := range req.History {
		history = append(history, llm.Message{Role: llm.Role(t.Role), Text: t.Text})
	}
	text, err := h.assist.Ask(ctx, assist.AskInput{
		PageContent: req.PageContent,
		Question:    req.Question,
		History:     history,
	})
	if err != nil {
		return nil, err
	}
	return &TextResponse{Text: text}, nil
}

func (h *Handler) interpret(ctx context.Context, req *InterpretRequest) (*ActionResponse, error) {
	act, err := h.assist.Interpret(ctx, assist.InterpretInput{
		Command: req.Command,
		Theme:   req.Theme,
		Page:    req.Page,
		History: req.History,
	})
	if err != nil {
		return nil, err
	}
	return &act, nil
}
