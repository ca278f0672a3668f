package hn

import (
	"bytes"
	"encoding/json"
)

// Kind is the closed set of item variants. Every consumer must handle
// KindUntyped and KindUnknown as well as the named variants.
type Kind uint8

const (
	KindUntyped Kind = iota
	KindStory
	KindComment
	KindJob
	KindPoll
	KindPollOpt
	KindUnknown
)

var kindNames = map[Kind]string{
	KindStory:   "story",
	KindComment: "comment",
	KindJob:     "job",
	KindPoll:    "poll",
	KindPollOpt: "pollopt",
}

func (k Kind) String() string {
	switch k {
	case KindUntyped:
		return "untyped"
	case KindUnknown:
		return "unknown"
	}
	return kindNames[k]
}

// ItemType is the decoded `type` field. Unrecognized values keep their raw
// spelling so they can be re-encoded unchanged.
type ItemType struct {
	kind Kind
	raw  string
}

func TypeOf(k Kind) ItemType {
	return ItemType{kind: k, raw: kindNames[k]}
}

// ParseType validates s against the known variants. An empty string is
// untyped; anything else that is not recognized is passed through as
// KindUnknown.
func ParseType(s string) ItemType {
	if s == "" {
		return ItemType{kind: KindUntyped}
	}
	for k, name := range kindNames {
		if name == s {
			return ItemType{kind: k, raw: s}
		}
	}
	return ItemType{kind: KindUnknown, raw: s}
}

func (t ItemType) Kind() Kind     { return t.kind }
func (t ItemType) String() string { return t.raw }
func (t ItemType) Is(k Kind) bool { return t.kind == k }

func (t ItemType) MarshalJSON() ([]byte, error) {
	if t.kind == KindUntyped {
		return []byte("null"), nil
	}
	return json.Marshal(t.raw)
}

func (t *ItemType) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = ItemType{kind: KindUntyped}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseType(s)
	return nil
}

// Item is the universal HN record. Deleted or dead items carry no content.
type Item struct {
	ID          int      `json:"id"`
	Type        ItemType `json:"type,omitzero"`
	By          string   `json:"by,omitempty"`
	Time        int64    `json:"time,omitempty"`
	Text        string   `json:"text,omitempty"`
	URL         string   `json:"url,omitempty"`
	Score       int      `json:"score,omitempty"`
	Title       string   `json:"title,omitempty"`
	Descendants int      `json:"descendants,omitempty"`
	Kids        []int    `json:"kids,omitempty"`
	Parent      int      `json:"parent,omitempty"`
	Parts       []int    `json:"parts,omitempty"`
	Poll        int      `json:"poll,omitempty"`
	Deleted     bool     `json:"deleted,omitempty"`
	Dead        bool     `json:"dead,omitempty"`
}

// Tombstoned reports whether the item is deleted or dead.
func (it *Item) Tombstoned() bool {
	return it != nil && (it.Deleted || it.Dead)
}

// IsValidComment reports whether the item can be shown in a comment list:
// a live comment with a non-empty body.
func (it *Item) IsValidComment() bool {
	return it != nil && it.Type.Is(KindComment) && !it.Tombstoned() && it.Text != ""
}

// Clone returns a deep copy.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	out := *it
	if it.Kids != nil {
		out.Kids = append([]int(nil), it.Kids...)
	}
	if it.Parts != nil {
		out.Parts = append([]int(nil), it.Parts...)
	}
	return &out
}

// User is an HN profile. Submitted is most-recent-first as returned upstream.
type User struct {
	ID        string `json:"id"`
	Created   int64  `json:"created"`
	Karma     int    `json:"karma"`
	About     string `json:"about,omitempty"`
	Submitted []int  `json:"submitted,omitempty"`
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Submitted != nil {
		out.Submitted = append([]int(nil), u.Submitted...)
	}
	return &out
}

// Updates is the /updates.json snapshot.
type Updates struct {
	Items    []int    `json:"items"`
	Profiles []string `json:"profiles"`
}
