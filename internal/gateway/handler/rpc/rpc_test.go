package rpc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hnreader/internal/assist"
	"hnreader/internal/feed"
	artifactrepo "hnreader/internal/gateway/repository/artifact"
	prefrepo "hnreader/internal/gateway/repository/preferences"
	"hnreader/internal/gateway/handler/rpc"
	"hnreader/internal/gateway/service/preferences"
	"hnreader/internal/hn"
	"hnreader/internal/hn/hntest"
	"hnreader/internal/llm"
	"hnreader/internal/thread"
)

type env struct {
	hn  *hntest.Server
	url string
	llm *llm.FakeClient
}

func newEnv(t *testing.T, withLLM bool) *env {
	t.Helper()
	srv := hntest.NewServer(t)
	feedSvc := feed.New(srv.Client())
	prefs := preferences.New(prefrepo.NewMemoryStore(), feedSvc, artifactrepo.NewMemoryStore(), nil)
	e := &env{hn: srv}
	var client llm.Client
	if withLLM {
		e.llm = llm.NewFakeClient(nil)
		client = e.llm
	}
	h := rpc.New(feedSvc, thread.NewRegistry(feedSvc, thread.DefaultRegistryConfig()), prefs, assist.New(client, feedSvc, nil))

	mux := http.NewServeMux()
	h.Mount(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	e.url = ts.URL
	return e
}

func call[Req, Res any](t *testing.T, e *env, service, method string, req *Req) (*Res, error) {
	t.Helper()
	c := connect.NewClient[Req, Res](http.DefaultClient, e.url+rpc.Procedure(service, method), connect.WithCodec(rpc.JSONCodec{}))
	res, err := c.CallUnary(context.Background(), connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func seedThread(srv *hntest.Server) {
	kids := make([]int, 0, 12)
	for i := 0; i < 12; i++ {
		id := 100 + i
		kids = append(kids, id)
		srv.AddItem(hn.Item{ID: id, Type: hn.TypeOf(hn.KindComment), Text: "c", Parent: 1})
	}
	srv.AddItem(hn.Item{ID: 1, Type: hn.TypeOf(hn.KindStory), Title: "story", Kids: kids})
}

func TestFeedStoriesRespectHiddenSet(t *testing.T) {
	e := newEnv(t, false)
	e.hn.SetListing(hn.CategoryTop, 3, 2, 1)
	for _, id := range []int{1, 2, 3} {
		e.hn.AddItem(hn.Item{ID: id, Type: hn.TypeOf(hn.KindStory), Title: "s"})
	}

	_, err := call[rpc.StoryRequest, rpc.Empty](t, e, rpc.PreferenceServiceName, "Hide", &rpc.StoryRequest{Owner: "alice", StoryID: 2})
	require.NoError(t, err)

	res, err := call[rpc.GetCategoryStoriesRequest, rpc.StoriesResponse](t, e, rpc.FeedServiceName, "GetCategoryStories",
		&rpc.GetCategoryStoriesRequest{Category: "top", Limit: 10, Owner: "alice"})
	require.NoError(t, err)
	require.Len(t, res.Stories, 2)
	assert.Equal(t, 3, res.Stories[0].ID)
	assert.Equal(t, 1, res.Stories[1].ID)

	_, err = call[rpc.GetCategoryStoriesRequest, rpc.StoriesResponse](t, e, rpc.FeedServiceName, "GetCategoryStories",
		&rpc.GetCategoryStoriesRequest{Category: "sideways"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestFeedErrorCodes(t *testing.T) {
	e := newEnv(t, false)

	_, err := call[rpc.GetItemRequest, rpc.ItemResponse](t, e, rpc.FeedServiceName, "GetItem", &rpc.GetItemRequest{ID: 404})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = call[rpc.GetItemRequest, rpc.ItemResponse](t, e, rpc.FeedServiceName, "GetItem", &rpc.GetItemRequest{ID: 0})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err), "validation rejects non-positive ids")

	e.hn.Fail(hntest.ItemPath(7), http.StatusServiceUnavailable)
	_, err = call[rpc.GetItemRequest, rpc.ItemResponse](t, e, rpc.FeedServiceName, "GetItem", &rpc.GetItemRequest{ID: 7})
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))

	e.hn.AddRawItem(8, `{"id": "eight"}`)
	_, err = call[rpc.GetItemRequest, rpc.ItemResponse](t, e, rpc.FeedServiceName, "GetItem", &rpc.GetItemRequest{ID: 8})
	assert.Equal(t, connect.CodeDataLoss, connect.CodeOf(err))

	_, err = call[rpc.GetUserActivityRequest, rpc.UserActivityResponse](t, e, rpc.FeedServiceName, "GetUserActivity", &rpc.GetUserActivityRequest{Username: "ghost"})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestThreadPagingOverRPC(t *testing.T) {
	e := newEnv(t, false)
	seedThread(e.hn)

	open, err := call[rpc.OpenThreadRequest, rpc.OpenThreadResponse](t, e, rpc.ThreadServiceName, "Open", &rpc.OpenThreadRequest{StoryID: 1, PageSize: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, open.SessionID)
	assert.Equal(t, 12, open.TotalComments)
	assert.Len(t, open.Comments, 5)
	assert.True(t, open.HasMore)

	sess := &rpc.SessionRequest{SessionID: open.SessionID}
	page, err := call[rpc.SessionRequest, rpc.PageResponse](t, e, rpc.ThreadServiceName, "NextPage", sess)
	require.NoError(t, err)
	assert.Len(t, page.Comments, 5)
	page, err = call[rpc.SessionRequest, rpc.PageResponse](t, e, rpc.ThreadServiceName, "NextPage", sess)
	require.NoError(t, err)
	assert.Len(t, page.Comments, 2)
	assert.False(t, page.HasMore)
	assert.Equal(t, 3, page.LoadedPages)

	toggle, err := call[rpc.CommentRequest, rpc.ToggleRepliesResponse](t, e, rpc.ThreadServiceName, "ToggleReplies", &rpc.CommentRequest{SessionID: open.SessionID, CommentID: 100})
	require.NoError(t, err)
	assert.False(t, toggle.Known)
	assert.NotNil(t, toggle.Replies)

	_, err = call[rpc.SessionRequest, rpc.Empty](t, e, rpc.ThreadServiceName, "Close", sess)
	require.NoError(t, err)
	_, err = call[rpc.SessionRequest, rpc.PageResponse](t, e, rpc.ThreadServiceName, "NextPage", sess)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = call[rpc.OpenThreadRequest, rpc.OpenThreadResponse](t, e, rpc.ThreadServiceName, "Open", &rpc.OpenThreadRequest{StoryID: 999})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestReadingListExportOverRPC(t *testing.T) {
	e := newEnv(t, false)
	e.hn.AddItem(hn.Item{ID: 5, Type: hn.TypeOf(hn.KindStory), Title: "five"})

	created, err := call[rpc.CreateListRequest, rpc.ListResponse](t, e, rpc.PreferenceServiceName, "CreateList", &rpc.CreateListRequest{Owner: "alice", Name: "later"})
	require.NoError(t, err)
	listReq := &rpc.ListStoryRequest{Owner: "alice", ListID: created.List.ID, StoryID: 5}
	_, err = call[rpc.ListStoryRequest, rpc.Empty](t, e, rpc.PreferenceServiceName, "AddToList", listReq)
	require.NoError(t, err)

	items, err := call[rpc.ListRequest, rpc.StoryIDsResponse](t, e, rpc.PreferenceServiceName, "ListItems", &rpc.ListRequest{Owner: "alice", ListID: created.List.ID})
	require.NoError(t, err)
	assert.Equal(t, []int{5}, items.StoryIDs)

	exp, err := call[rpc.ListRequest, rpc.ExportResponse](t, e, rpc.PreferenceServiceName, "ExportList", &rpc.ListRequest{Owner: "alice", ListID: created.List.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, exp.Export.Stories)
	assert.Contains(t, exp.Export.HTMLURL, "memory://exports/alice/")

	_, err = call[rpc.ListRequest, rpc.StoryIDsResponse](t, e, rpc.PreferenceServiceName, "ListItems", &rpc.ListRequest{Owner: "bob", ListID: created.List.ID})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = call[rpc.OwnerRequest, rpc.StoryIDsResponse](t, e, rpc.PreferenceServiceName, "ListSaved", &rpc.OwnerRequest{})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestAssistOverRPC(t *testing.T) {
	e := newEnv(t, true)

	res, err := call[rpc.SummarizeRequest, rpc.TextResponse](t, e, rpc.AssistServiceName, "Summarize", &rpc.SummarizeRequest{Comments: []string{}})
	require.NoError(t, err)
	assert.Equal(t, assist.NoCommentsSummary, res.Text)
	assert.Empty(t, e.llm.Calls())

	_, err = call[rpc.SummarizeRequest, rpc.TextResponse](t, e, rpc.AssistServiceName, "Summarize", &rpc.SummarizeRequest{})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = call[rpc.AskRequest, rpc.TextResponse](t, e, rpc.AssistServiceName, "Ask", &rpc.AskRequest{Question: "  "})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	act, err := call[rpc.InterpretRequest, rpc.ActionResponse](t, e, rpc.AssistServiceName, "Interpret", &rpc.InterpretRequest{Command: "go dark"})
	require.NoError(t, err)
	assert.Equal(t, assist.ActionNone, act.Action)
}

func TestAssistWithoutModelIsFailedPrecondition(t *testing.T) {
	e := newEnv(t, false)
	_, err := call[rpc.AskRequest, rpc.TextResponse](t, e, rpc.AssistServiceName, "Ask", &rpc.AskRequest{Question: "why?"})
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}
