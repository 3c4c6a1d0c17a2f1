package notion

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Notion API limits.
const (
	MaxTextLength     = 2000
	MaxBlocksPerBatch = 100
)

// Block is a Notion block object. Exactly one of the typed fields is set,
// matching Type.
type Block struct {
	Object           string     `json:"object"`
	Type             string     `json:"type"`
	Heading1         *TextBlock `json:"heading_1,omitempty"`
	Heading2         *TextBlock `json:"heading_2,omitempty"`
	Heading3         *TextBlock `json:"heading_3,omitempty"`
	Paragraph        *TextBlock `json:"paragraph,omitempty"`
	BulletedListItem *TextBlock `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextBlock `json:"numbered_list_item,omitempty"`
	Quote            *TextBlock `json:"quote,omitempty"`
	Code             *TextBlock `json:"code,omitempty"`
	Divider          *struct{}  `json:"divider,omitempty"`
}

// TextBlock is the body shared by every text-bearing block type.
type TextBlock struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language,omitempty"`
	Children []Block    `json:"children,omitempty"`
}

// RichText is one styled run of text.
type RichText struct {
	Type        string       `json:"type"`
	Text        Text         `json:"text"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// Text is the content of a text run.
type Text struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Link is a hyperlink target.
type Link struct {
	URL string `json:"url"`
}

// Annotations style a text run.
type Annotations struct {
	Bold   bool `json:"bold,omitempty"`
	Italic bool `json:"italic,omitempty"`
	Code   bool `json:"code,omitempty"`
}

// PlainText concatenates the content of a block's rich text.
func (b Block) PlainText() string {
	body := b.body()
	if body == nil {
		return ""
	}
	var sb strings.Builder
	for _, rt := range body.RichText {
		sb.WriteString(rt.Text.Content)
	}
	return sb.String()
}

func (b Block) body() *TextBlock {
	switch b.Type {
	case "heading_1":
		return b.Heading1
	case "heading_2":
		return b.Heading2
	case "heading_3":
		return b.Heading3
	case "paragraph":
		return b.Paragraph
	case "bulleted_list_item":
		return b.BulletedListItem
	case "numbered_list_item":
		return b.NumberedListItem
	case "quote":
		return b.Quote
	case "code":
		return b.Code
	}
	return nil
}

func newBlock(typ string, body *TextBlock) Block {
	b := Block{Object: "block", Type: typ}
	switch typ {
	case "heading_1":
		b.Heading1 = body
	case "heading_2":
		b.Heading2 = body
	case "heading_3":
		b.Heading3 = body
	case "paragraph":
		b.Paragraph = body
	case "bulleted_list_item":
		b.BulletedListItem = body
	case "numbered_list_item":
		b.NumberedListItem = body
	case "quote":
		b.Quote = body
	case "code":
		b.Code = body
	case "divider":
		b.Divider = &struct{}{}
	}
	return b
}

// MarkdownToBlocks converts a Markdown document into Notion blocks.
// Headings deeper than level 3 become heading_3. Raw HTML is dropped.
func MarkdownToBlocks(markdown string) []Block {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))
	c := converter{source: source}
	return c.blocks(doc)
}

type converter struct {
	source []byte
}

func (c converter) blocks(parent ast.Node) []Block {
	var out []Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, c.block(n)...)
	}
	return out
}

func (c converter) block(n ast.Node) []Block {
	switch n := n.(type) {
	case *ast.Heading:
		typ := "heading_3"
		switch n.Level {
		case 1:
			typ = "heading_1"
		case 2:
			typ = "heading_2"
		}
		return []Block{newBlock(typ, &TextBlock{RichText: c.richText(n)})}

	case *ast.Paragraph, *ast.TextBlock:
		rt := c.richText(n)
		if len(rt) == 0 {
			return nil
		}
		return []Block{newBlock("paragraph", &TextBlock{RichText: rt})}

	case *ast.List:
		typ := "bulleted_list_item"
		if n.IsOrdered() {
			typ = "numbered_list_item"
		}
		var items []Block
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			items = append(items, c.listItem(typ, item))
		}
		return items

	case *ast.Blockquote:
		var rt []RichText
		for p := n.FirstChild(); p != nil; p = p.NextSibling() {
			if len(rt) > 0 {
				rt = appendText(rt, "\n", nil, "")
			}
			rt = append(rt, c.richText(p)...)
		}
		return []Block{newBlock("quote", &TextBlock{RichText: chunk(rt)})}

	case *ast.FencedCodeBlock:
		lang := string(n.Language(c.source))
		if lang == "" {
			lang = "plain text"
		}
		return []Block{newBlock("code", &TextBlock{RichText: c.lines(n.Lines()), Language: lang})}

	case *ast.CodeBlock:
		return []Block{newBlock("code", &TextBlock{RichText: c.lines(n.Lines()), Language: "plain text"})}

	case *ast.ThematicBreak:
		return []Block{newBlock("divider", nil)}
	}
	return nil
}

// listItem uses the item's first text block as its text and nests any
// further blocks as children.
func (c converter) listItem(typ string, item ast.Node) Block {
	body := &TextBlock{RichText: []RichText{}}
	for n := item.FirstChild(); n != nil; n = n.NextSibling() {
		switch n.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			if len(body.RichText) == 0 {
				body.RichText = c.richText(n)
				continue
			}
		}
		body.Children = append(body.Children, c.block(n)...)
	}
	return newBlock(typ, body)
}

func (c converter) lines(segs *text.Segments) []RichText {
	var sb strings.Builder
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		sb.Write(seg.Value(c.source))
	}
	return chunk([]RichText{plain(strings.TrimRight(sb.String(), "\n"))})
}

// richText flattens the inline children of n into styled runs.
func (c converter) richText(n ast.Node) []RichText {
	var out []RichText
	c.inline(n, Annotations{}, "", &out)
	if len(out) > 0 {
		last := &out[len(out)-1]
		last.Text.Content = strings.TrimRight(last.Text.Content, " \n")
		if last.Text.Content == "" {
			out = out[:len(out)-1]
		}
	}
	return chunk(out)
}

func (c converter) inline(parent ast.Node, ann Annotations, link string, out *[]RichText) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			s := string(n.Value(c.source))
			switch {
			case n.HardLineBreak():
				s += "\n"
			case n.SoftLineBreak():
				s += " "
			}
			*out = appendText(*out, s, &ann, link)
		case *ast.String:
			*out = appendText(*out, string(n.Value), &ann, link)
		case *ast.CodeSpan:
			code := ann
			code.Code = true
			c.inline(n, code, link, out)
		case *ast.Emphasis:
			em := ann
			if n.Level >= 2 {
				em.Bold = true
			} else {
				em.Italic = true
			}
			c.inline(n, em, link, out)
		case *ast.Link:
			c.inline(n, ann, string(n.Destination), out)
		case *ast.AutoLink:
			url := string(n.URL(c.source))
			*out = appendText(*out, string(n.Label(c.source)), &ann, url)
		case *ast.RawHTML:
		default:
			c.inline(n, ann, link, out)
		}
	}
}

// appendText adds s to runs, merging it into the last run when the style
// and link match.
func appendText(runs []RichText, s string, ann *Annotations, link string) []RichText {
	if s == "" {
		return runs
	}
	var a *Annotations
	if ann != nil && *ann != (Annotations{}) {
		cp := *ann
		a = &cp
	}
	if n := len(runs); n > 0 && sameStyle(runs[n-1], a, link) {
		runs[n-1].Text.Content += s
		return runs
	}
	rt := RichText{Type: "text", Text: Text{Content: s}, Annotations: a}
	if link != "" {
		rt.Text.Link = &Link{URL: link}
	}
	return append(runs, rt)
}

func sameStyle(rt RichText, a *Annotations, link string) bool {
	if (rt.Annotations == nil) != (a == nil) {
		return false
	}
	if a != nil && *rt.Annotations != *a {
		return false
	}
	cur := ""
	if rt.Text.Link != nil {
		cur = rt.Text.Link.URL
	}
	return cur == link
}

func plain(s string) RichText {
	return RichText{Type: "text", Text: Text{Content: s}}
}

// chunk splits runs longer than MaxTextLength characters.
func chunk(runs []RichText) []RichText {
	out := make([]RichText, 0, len(runs))
	for _, rt := range runs {
		r := []rune(rt.Text.Content)
		for len(r) > MaxTextLength {
			part := rt
			part.Text.Content = string(r[:MaxTextLength])
			out = append(out, part)
			r = r[MaxTextLength:]
		}
		rt.Text.Content = string(r)
		out = append(out, rt)
	}
	return out
}
