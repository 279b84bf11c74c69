package export

import (
	"strings"
	"testing"
)

func TestBlocksFromHTML(t *testing.T) {
	html := `<h2>Our Approach</h2><p>We provide <strong>person-centred</strong> care.</p><ul><li>Daily visits</li><li>Night cover</li></ul>`
	blocks := Blocks(html)

	want := []Block{
		{Kind: BlockHeading, Level: 2, Text: "Our Approach"},
		{Kind: BlockParagraph, Text: "We provide person-centred care."},
		{Kind: BlockListItem, Text: "Daily visits"},
		{Kind: BlockListItem, Text: "Night cover"},
	}
	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d: %+v", len(blocks), len(want), blocks)
	}
	for i, w := range want {
		if blocks[i] != w {
			t.Errorf("block %d = %+v, want %+v", i, blocks[i], w)
		}
	}
}

func TestBlocksSanitizesScripts(t *testing.T) {
	blocks := Blocks(`<p>Safe</p><script>alert("x")</script>`)
	for _, b := range blocks {
		if strings.Contains(b.Text, "alert") {
			t.Errorf("script content leaked into block: %+v", b)
		}
	}
}

func TestBlocksFromPlainText(t *testing.T) {
	src := "# Staffing Plan\n\nWe employ 40 carers.\n\nSERVICE HOURS\n\nThis is a normal paragraph that is longer than fifty characters in total."
	blocks := Blocks(src)

	want := []Block{
		{Kind: BlockHeading, Level: 2, Text: "Staffing Plan"},
		{Kind: BlockParagraph, Text: "We employ 40 carers."},
		{Kind: BlockHeading, Level: 2, Text: "SERVICE HOURS"},
		{Kind: BlockParagraph, Text: "This is a normal paragraph that is longer than fifty characters in total."},
	}
	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d: %+v", len(blocks), len(want), blocks)
	}
	for i, w := range want {
		if blocks[i] != w {
			t.Errorf("block %d = %+v, want %+v", i, blocks[i], w)
		}
	}
}

func TestBlocksUppercasePromotionRequiresShortText(t *testing.T) {
	long := strings.Repeat("LOUD ", 20)
	blocks := Blocks(long)
	if len(blocks) != 1 || blocks[0].Kind != BlockParagraph {
		t.Errorf("long uppercase text should stay a paragraph, got %+v", blocks)
	}
}

func TestBlocksEmpty(t *testing.T) {
	if got := Blocks("   \n\n  "); got != nil {
		t.Errorf("expected nil blocks for blank content, got %+v", got)
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("<h1>Title</h1><p>Body text.</p>")
	if got != "Title\nBody text." {
		t.Errorf("PlainText = %q", got)
	}
}
