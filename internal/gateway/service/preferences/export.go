package preferences

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	g "github.com/maragudk/gomponents"
	c "github.com/maragudk/gomponents/components"
	. "github.com/maragudk/gomponents/html"
	"github.com/sirupsen/logrus"

	artifactrepo "hnreader/internal/gateway/repository/artifact"
	prefrepo "hnreader/internal/gateway/repository/preferences"
	"hnreader/internal/hn"
	"hnreader/internal/textutil"
)

const (
	exportHTMLName = "list.html"
	exportJSONName = "list.json"
)

type Export struct {
	ID      string `json:"id"`
	ListID  string `json:"listId"`
	HTMLURL string `json:"htmlUrl"`
	JSONURL string `json:"jsonUrl"`
	Stories int    `json:"stories"`
}

type exportDocument struct {
	List       prefrepo.ReadingList `json:"list"`
	ExportedAt time.Time            `json:"exportedAt"`
	Stories    []*hn.Item           `json:"stories"`
}

// ExportReadingList renders the list as HTML and JSON documents and stores
// both under a fresh export prefix. Stories that no longer exist upstream
// are left out.
func (s *Service) ExportReadingList(ctx context.Context, owner, listID string) (*Export, error) {
	owner, err := requireOwner(owner)
	if err != nil {
		return nil, err
	}
	if s.artifacts == nil {
		return nil, fmt.Errorf("export list: no artifact store configured")
	}
	list, err := s.store.GetList(ctx, owner, listID)
	if err != nil {
		return nil, err
	}
	ids, err := s.store.ListItems(ctx, owner, list.ID)
	if err != nil {
		return nil, err
	}
	stories, err := s.feed.GetMultipleItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("export list: hydrate stories: %w", err)
	}

	now := s.now().UTC()
	page, err := renderListHTML(list, stories, now)
	if err != nil {
		return nil, fmt.Errorf("export list: render html: %w", err)
	}
	doc, err := json.MarshalIndent(exportDocument{List: list, ExportedAt: now, Stories: stories}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export list: encode json: %w", err)
	}

	exp := &Export{ID: s.newID(), ListID: list.ID, Stories: len(stories)}
	prefix := artifactrepo.ExportPrefix(owner, exp.ID)
	if exp.HTMLURL, err = s.publish(ctx, prefix+exportHTMLName, page, "text/html; charset=utf-8"); err != nil {
		return nil, err
	}
	if exp.JSONURL, err = s.publish(ctx, prefix+exportJSONName, doc, "application/json"); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"list": list.ID, "export": exp.ID, "stories": exp.Stories}).Info("reading list exported")
	return exp, nil
}

func (s *Service) publish(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	if err := s.artifacts.Put(ctx, key, content, contentType); err != nil {
		return "", fmt.Errorf("export list: store %s: %w", key, err)
	}
	u, err := s.artifacts.URL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("export list: url for %s: %w", key, err)
	}
	return u, nil
}

func renderListHTML(list prefrepo.ReadingList, stories []*hn.Item, now time.Time) ([]byte, error) {
	entries := make([]g.Node, 0, len(stories))
	for _, st := range stories {
		entries = append(entries, storyEntry(st, now))
	}
	b := new(bytes.Buffer)
	err := c.HTML5(c.HTML5Props{
		Title:    list.Name,
		Language: "en",
		Body: []g.Node{
			H1(g.Text(list.Name)),
			P(g.Textf("%d stories, exported %s", len(stories), now.Format(time.RFC1123))),
			g.If(len(stories) == 0, P(g.Text("This list is empty."))),
			Ol(entries...),
		},
	}).Render(b)
	if err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func storyEntry(st *hn.Item, now time.Time) g.Node {
	hnURL := "https://news.ycombinator.com/item?id=" + strconv.Itoa(st.ID)
	href := st.URL
	if href == "" {
		href = hnURL
	}
	title := st.Title
	if title == "" {
		title = "(untitled)"
	}
	domain := textutil.Domain(st.URL)
	return Li(
		A(g.Attr("href", href), g.Attr("rel", "noopener"), g.Text(title)),
		g.If(domain != "", Span(g.Attr("class", "domain"), g.Text(" ("+domain+")"))),
		Br(),
		Small(
			g.Textf("%s points by %s %s | ", textutil.CompactNumber(st.Score), st.By, textutil.TimeAgo(st.Time, now)),
			A(g.Attr("href", hnURL), g.Textf("%d comments", st.Descendants)),
		),
	)
}
