package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Markdown conversion ──

func TestMarkdownToBlocks(t *testing.T) {
	md := `# Apple 2024 Q4

## 1. Financial Summary
- **Total Revenue**: $94.9B (6% y/y)
- EPS: $1.64

### Notes
Services hit a *record* high, see [release](https://example.com/pr).

1. first
2. second

---

` + "```go\nfmt.Println(1)\n```\n\n> guidance\n> maintained\n\n#### deep\n"

	blocks := MarkdownToBlocks(md)
	types := make([]string, len(blocks))
	for i, b := range blocks {
		types[i] = b.Type
	}
	assert.Equal(t, []string{
		"heading_1", "heading_2", "bulleted_list_item", "bulleted_list_item",
		"heading_3", "paragraph", "numbered_list_item", "numbered_list_item",
		"divider", "code", "quote", "heading_3",
	}, types)

	assert.Equal(t, "Apple 2024 Q4", blocks[0].PlainText())
	assert.Equal(t, "Total Revenue: $94.9B (6% y/y)", blocks[2].PlainText())

	rev := blocks[2].BulletedListItem.RichText
	require.Len(t, rev, 2)
	require.NotNil(t, rev[0].Annotations)
	assert.True(t, rev[0].Annotations.Bold)
	assert.Equal(t, "Total Revenue", rev[0].Text.Content)
	assert.Nil(t, rev[1].Annotations)

	para := blocks[5].Paragraph.RichText
	require.Len(t, para, 5)
	assert.True(t, para[1].Annotations.Italic)
	require.NotNil(t, para[3].Text.Link)
	assert.Equal(t, "https://example.com/pr", para[3].Text.Link.URL)
	assert.Equal(t, "release", para[3].Text.Content)

	assert.Equal(t, "go", blocks[9].Code.Language)
	assert.Equal(t, "fmt.Println(1)", blocks[9].PlainText())
	assert.Equal(t, "guidance maintained", blocks[10].PlainText())
	assert.Equal(t, "deep", blocks[11].PlainText())
}

func TestMarkdownToBlocksNestedList(t *testing.T) {
	blocks := MarkdownToBlocks("- parent\n  - child\n- sibling\n")
	require.Len(t, blocks, 2)
	assert.Equal(t, "parent", blocks[0].PlainText())
	require.Len(t, blocks[0].BulletedListItem.Children, 1)
	assert.Equal(t, "child", blocks[0].BulletedListItem.Children[0].PlainText())
	assert.Empty(t, blocks[1].BulletedListItem.Children)
}

func TestMarkdownToBlocksChunksLongText(t *testing.T) {
	long := strings.Repeat("가", MaxTextLength+50)
	blocks := MarkdownToBlocks(long)
	require.Len(t, blocks, 1)
	rt := blocks[0].Paragraph.RichText
	require.Len(t, rt, 2)
	assert.Len(t, []rune(rt[0].Text.Content), MaxTextLength)
	assert.Len(t, []rune(rt[1].Text.Content), 50)
}

func TestBlockJSON(t *testing.T) {
	data, err := json.Marshal(MarkdownToBlocks("---\n\ntext"))
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"object":"block","type":"divider","divider":{}},
		{"object":"block","type":"paragraph","paragraph":{"rich_text":[{"type":"text","text":{"content":"text"}}]}}
	]`, string(data))
}

// ── Client ──

type fakeNotion struct {
	mu       sync.Mutex
	pages    []map[string]any
	appends  []int
	schemaOK bool
}

func (f *fakeNotion) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /databases/db-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret_key", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		if !f.schemaOK {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"object":"error","status":404,"code":"object_not_found","message":"missing"}`))
			return
		}
		_, _ = w.Write([]byte(`{"properties":{"Tags":{"type":"multi_select"},"Report":{"type":"title"}}}`))
	})
	mux.HandleFunc("POST /pages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.pages = append(f.pages, body)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"id":"page-1","url":"https://www.notion.so/page-1"}`))
	})
	mux.HandleFunc("PATCH /blocks/page-1/children", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Children []json.RawMessage `json:"children"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.appends = append(f.appends, len(body.Children))
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeNotion) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	cfg := DefaultConfig()
	cfg.APIKey = "secret_key"
	cfg.DatabaseID = "db-1"
	cfg.BaseURL = srv.URL + "/"
	return NewClient(cfg, zerolog.Nop())
}

func TestExport(t *testing.T) {
	f := &fakeNotion{schemaOK: true}
	c := newTestClient(t, f)

	res, err := c.Export(context.Background(), ExportRequest{
		Ticker:  "TSM",
		Period:  "2024 Q4",
		Content: "## Summary\n- Revenue up",
	})
	require.NoError(t, err)
	assert.Equal(t, "page-1", res.PageID)
	assert.Equal(t, "https://www.notion.so/page-1", res.URL)
	assert.Equal(t, 2, res.Blocks)

	require.Len(t, f.pages, 1)
	page := f.pages[0]
	assert.Equal(t, map[string]any{"database_id": "db-1"}, page["parent"])
	props := page["properties"].(map[string]any)
	require.Contains(t, props, "Report")
	title := props["Report"].(map[string]any)["title"].([]any)[0].(map[string]any)
	assert.Equal(t, "TSM 어닝콜 분석 - 2024 Q4", title["text"].(map[string]any)["content"])
	assert.Len(t, page["children"], 2)
	assert.Empty(t, f.appends)
}

func TestExportAppendsOverflow(t *testing.T) {
	f := &fakeNotion{}
	c := newTestClient(t, f)

	var sb strings.Builder
	for i := 0; i < 250; i++ {
		sb.WriteString("- item\n")
	}
	res, err := c.Export(context.Background(), ExportRequest{Ticker: "TSM", Content: sb.String()})
	require.NoError(t, err)
	assert.Equal(t, 250, res.Blocks)

	require.Len(t, f.pages, 1)
	assert.Len(t, f.pages[0]["children"], MaxBlocksPerBatch)
	assert.Contains(t, f.pages[0]["properties"], "이름")
	assert.Equal(t, []int{100, 50}, f.appends)
}

func TestExportErrors(t *testing.T) {
	unconfigured := NewClient(Config{}, zerolog.Nop())
	assert.False(t, unconfigured.Status().Configured)
	_, err := unconfigured.Export(context.Background(), ExportRequest{Ticker: "A", Content: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	c := newTestClient(t, &fakeNotion{})
	assert.True(t, c.Status().Configured)
	_, err = c.Export(context.Background(), ExportRequest{Ticker: "TSM"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = c.Export(context.Background(), ExportRequest{Content: "x"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestExportAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","status":400,"code":"validation_error","message":"bad title"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", DatabaseID: "d", BaseURL: srv.URL}, zerolog.Nop())
	_, err := c.Export(context.Background(), ExportRequest{Ticker: "TSM", Content: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Equal(t, "bad title", apiErr.Message)
}
