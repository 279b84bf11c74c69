package export

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// BlockKind classifies a content block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockListItem
)

// Block is one unit of the intermediate document model. Format generators
// consume blocks instead of re-parsing markup themselves.
type Block struct {
	Kind  BlockKind
	Level int // heading level, 1-6
	Text  string
}

var contentPolicy = bluemonday.UGCPolicy()

// Blocks converts proposal content into the block model. HTML-looking
// content is sanitized and parsed with a real HTML parser; anything else
// goes through the plain-text splitter.
func Blocks(content string) []Block {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if looksLikeHTML(content) {
		return blocksFromHTML(contentPolicy.Sanitize(content))
	}
	return blocksFromText(content)
}

// PlainText flattens content into plain text, block per line.
func PlainText(content string) string {
	blocks := Blocks(content)
	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		lines = append(lines, b.Text)
	}
	return strings.Join(lines, "\n")
}

func looksLikeHTML(s string) bool {
	open := strings.IndexByte(s, '<')
	if open < 0 {
		return false
	}
	close := strings.IndexByte(s[open:], '>')
	return close > 1
}

// blocksFromHTML walks the parsed tree and emits one block per
// block-level element. Inline formatting is flattened to text; nested
// lists emit one list-item block per <li>.
func blocksFromHTML(src string) []Block {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return blocksFromText(src)
	}

	var blocks []Block
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				if text := nodeText(n); text != "" {
					blocks = append(blocks, Block{Kind: BlockHeading, Level: int(n.Data[1] - '0'), Text: text})
				}
				return
			case "p", "blockquote", "pre":
				if text := nodeText(n); text != "" {
					blocks = append(blocks, Block{Kind: BlockParagraph, Text: text})
				}
				return
			case "li":
				if text := nodeText(n); text != "" {
					blocks = append(blocks, Block{Kind: BlockListItem, Text: text})
				}
				return
			}
		}
		if n.Type == html.TextNode {
			// Bare text directly under body or a div.
			if text := collapseSpace(n.Data); text != "" {
				blocks = append(blocks, Block{Kind: BlockParagraph, Text: text})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return blocks
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.Data == "br" {
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapseSpace(sb.String())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// blocksFromText splits plain content on blank lines. A block starting
// with '#' or a short all-uppercase block is promoted to a level-2
// heading, matching how section drafts are commonly typed.
func blocksFromText(src string) []Block {
	paragraphs := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n\n")
	var blocks []Block
	for _, p := range paragraphs {
		text := collapseSpace(p)
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			blocks = append(blocks, Block{
				Kind:  BlockHeading,
				Level: 2,
				Text:  collapseSpace(strings.TrimLeft(text, "# ")),
			})
			continue
		}
		if len(text) < 50 && isAllUpper(text) {
			blocks = append(blocks, Block{Kind: BlockHeading, Level: 2, Text: text})
			continue
		}
		blocks = append(blocks, Block{Kind: BlockParagraph, Text: text})
	}
	return blocks
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}
