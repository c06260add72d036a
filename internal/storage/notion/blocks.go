package notion

// maxBlockTextLength is the per-block text size limit; longer bodies are
// split into ordered chunks of this many characters.
const maxBlockTextLength = 2000

// Block is a page body block. Exactly one of the payload fields is set,
// matching Type.
type Block struct {
	Type      string         `json:"type"`
	Paragraph *RichTextBlock `json:"paragraph,omitempty"`
	Quote     *RichTextBlock `json:"quote,omitempty"`
	Heading3  *HeadingBlock  `json:"heading_3,omitempty"`
}

// RichTextBlock is the payload of paragraph and quote blocks.
type RichTextBlock struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color"`
}

// HeadingBlock is the payload of heading blocks.
type HeadingBlock struct {
	RichText     []RichText `json:"rich_text"`
	Color        string     `json:"color"`
	IsToggleable bool       `json:"is_toggleable"`
}

// Heading3 builds a level-3 heading block.
func Heading3(content string) Block {
	return Block{
		Type:     "heading_3",
		Heading3: &HeadingBlock{RichText: spans(content), Color: "default"},
	}
}

// ParagraphBlocks chunks content into ordered paragraph blocks.
func ParagraphBlocks(content string) []Block {
	chunks := SplitText(content, maxBlockTextLength)
	blocks := make([]Block, 0, len(chunks))
	for _, chunk := range chunks {
		blocks = append(blocks, Block{
			Type:      "paragraph",
			Paragraph: &RichTextBlock{RichText: spans(chunk), Color: "default"},
		})
	}
	return blocks
}

// QuoteBlocks chunks content into ordered quote blocks.
func QuoteBlocks(content string) []Block {
	chunks := SplitText(content, maxBlockTextLength)
	blocks := make([]Block, 0, len(chunks))
	for _, chunk := range chunks {
		blocks = append(blocks, Block{
			Type:  "quote",
			Quote: &RichTextBlock{RichText: spans(chunk), Color: "default"},
		})
	}
	return blocks
}

// SplitText splits s into contiguous chunks of at most size characters,
// preserving order. Counting is by character so multi-byte text never gets
// cut mid-rune.
func SplitText(s string, size int) []string {
	if s == "" {
		return nil
	}

	runes := []rune(s)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		chunks = append(chunks, string(runes[start:min(start+size, len(runes))]))
	}
	return chunks
}
