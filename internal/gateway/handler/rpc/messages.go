package rpc

import (
	"hnreader/internal/assist"
	"hnreader/internal/feed"
	prefrepo "hnreader/internal/gateway/repository/preferences"
	"hnreader/internal/gateway/service/preferences"
	"hnreader/internal/hn"
)

// Feed

type GetCategoryStoriesRequest struct {
	Category string `json:"category" validate:"required"`
	Limit    int    `json:"limit" validate:"min=0,max=500"`
	// Owner, when set, drops that owner's hidden stories.
	Owner string `json:"owner,omitempty"`
}

type StoriesResponse struct {
	Stories []*hn.Item `json:"stories"`
}

type GetItemRequest struct {
	ID int `json:"id" validate:"min=1"`
}

type ItemResponse struct {
	Item *hn.Item `json:"item"`
}

type GetUserActivityRequest struct {
	Username string `json:"username" validate:"required"`
	Limit    int    `json:"limit" validate:"min=0,max=500"`
}

type UserActivityResponse struct {
	User        *hn.User   `json:"user"`
	Submissions []*hn.Item `json:"submissions"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit" validate:"min=0,max=500"`
	Owner string `json:"owner,omitempty"`
}

type GetMaxItemRequest struct{}

type MaxItemResponse struct {
	MaxItem int `json:"maxItem"`
}

// Thread

type OpenThreadRequest struct {
	StoryID  int `json:"storyId" validate:"min=1"`
	PageSize int `json:"pageSize" validate:"min=0,max=100"`
}

type OpenThreadResponse struct {
	SessionID     string     `json:"sessionId"`
	Story         *hn.Item   `json:"story"`
	Comments      []*hn.Item `json:"comments"`
	TotalComments int        `json:"totalComments"`
	HasMore       bool       `json:"hasMore"`
}

type SessionRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

type PageResponse struct {
	Comments    []*hn.Item `json:"comments"`
	HasMore     bool       `json:"hasMore"`
	LoadedPages int        `json:"loadedPages"`
}

type CommentRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
	CommentID int    `json:"commentId" validate:"min=1"`
}

type RepliesResponse struct {
	Replies []*hn.Item `json:"replies"`
}

type ToggleRepliesResponse struct {
	// Known is false when the comment's replies were never loaded.
	Known   bool       `json:"known"`
	Visible bool       `json:"visible"`
	Replies []*hn.Item `json:"replies"`
}

type Empty struct{}

// Preferences

type OwnerRequest struct {
	Owner string `json:"owner" validate:"required"`
}

type StoryRequest struct {
	Owner   string `json:"owner" validate:"required"`
	StoryID int    `json:"storyId" validate:"min=1"`
}

type StoryIDsResponse struct {
	StoryIDs []int `json:"storyIds"`
}

type CreateListRequest struct {
	Owner string `json:"owner" validate:"required"`
	Name  string `json:"name" validate:"required,max=200"`
}

type ListRequest struct {
	Owner  string `json:"owner" validate:"required"`
	ListID string `json:"listId" validate:"required"`
}

type ListStoryRequest struct {
	Owner   string `json:"owner" validate:"required"`
	ListID  string `json:"listId" validate:"required"`
	StoryID int    `json:"storyId" validate:"min=1"`
}

type ListResponse struct {
	List prefrepo.ReadingList `json:"list"`
}

type ListsResponse struct {
	Lists []prefrepo.ReadingList `json:"lists"`
}

type ExportResponse struct {
	Export *preferences.Export `json:"export"`
}

// Assist

type SummarizeRequest struct {
	Comments    []string `json:"comments"`
	PageContent string   `json:"pageContent"`
}

type SummarizeThreadRequest struct {
	StoryID int `json:"storyId" validate:"min=1"`
	Limit   int `json:"limit" validate:"min=0,max=100"`
}

type TextResponse struct {
	Text string `json:"text"`
}

type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type AskRequest struct {
	PageContent string     `json:"pageContent"`
	Question    string     `json:"question"`
	History     []ChatTurn `json:"history"`
}

type InterpretRequest struct {
	Command string   `json:"command" validate:"required"`
	Theme   string   `json:"theme"`
	Page    string   `json:"page"`
	History []string `json:"history"`
}

type ActionResponse = assist.Action

func toUserActivity(a *feed.UserActivity) *UserActivityResponse {
	return &UserActivityResponse{User: a.User, Submissions: a.Submissions}
}
