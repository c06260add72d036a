package notion

// Typed builders for the closed set of property payloads the syncer writes.
// Each destination field kind has exactly one builder; upserters compose
// them explicitly.

// RichText is a single text span.
type RichText struct {
	Type string      `json:"type"`
	Text TextContent `json:"text"`
}

// TextContent is the literal content of a text span.
type TextContent struct {
	Content string `json:"content"`
}

func spans(content string) []RichText {
	return []RichText{{Type: "text", Text: TextContent{Content: content}}}
}

// TitleProperty is a title field value.
type TitleProperty struct {
	Title []RichText `json:"title"`
}

// Title builds a title property.
func Title(content string) TitleProperty {
	return TitleProperty{Title: spans(content)}
}

// RichTextProperty is a rich-text field value.
type RichTextProperty struct {
	RichText []RichText `json:"rich_text"`
}

// Text builds a rich-text property.
func Text(content string) RichTextProperty {
	return RichTextProperty{RichText: spans(content)}
}

// URLProperty is a url field value.
type URLProperty struct {
	URL string `json:"url"`
}

// URL builds a url property.
func URL(url string) URLProperty {
	return URLProperty{URL: url}
}

// NumberProperty is a number field value.
type NumberProperty struct {
	Number float64 `json:"number"`
}

// Number builds a number property.
func Number(n float64) NumberProperty {
	return NumberProperty{Number: n}
}

// DateProperty is a date field value.
type DateProperty struct {
	Date DateValue `json:"date"`
}

// DateValue is the start date of a date property.
type DateValue struct {
	Start string `json:"start"`
}

// Date builds a date property from a YYYY-MM-DD string.
func Date(start string) DateProperty {
	return DateProperty{Date: DateValue{Start: start}}
}

// StatusProperty is a status field value.
type StatusProperty struct {
	Status StatusValue `json:"status"`
}

// Status builds a status property.
func Status(name string) StatusProperty {
	return StatusProperty{Status: StatusValue{Name: name}}
}

// SelectProperty is a select field value.
type SelectProperty struct {
	Select SelectValue `json:"select"`
}

// SelectValue names the selected option.
type SelectValue struct {
	Name string `json:"name"`
}

// Select builds a select property.
func Select(name string) SelectProperty {
	return SelectProperty{Select: SelectValue{Name: name}}
}

// RelationProperty is a relation field value.
type RelationProperty struct {
	Relation []RelationRef `json:"relation"`
}

// RelationRef points at a related page.
type RelationRef struct {
	ID string `json:"id"`
}

// Relation builds a relation property from page IDs.
func Relation(pageIDs []string) RelationProperty {
	refs := make([]RelationRef, 0, len(pageIDs))
	for _, id := range pageIDs {
		refs = append(refs, RelationRef{ID: id})
	}
	return RelationProperty{Relation: refs}
}

// FilesProperty is a files field value holding one external file.
type FilesProperty struct {
	Files []FileRef `json:"files"`
}

// FileRef is an externally hosted file.
type FileRef struct {
	Type     string      `json:"type"`
	Name     string      `json:"name"`
	External ExternalRef `json:"external"`
}

// ExternalRef is the URL of an external file or icon.
type ExternalRef struct {
	URL string `json:"url"`
}

// File builds a files property referencing an external URL.
func File(name, url string) FilesProperty {
	return FilesProperty{Files: []FileRef{{Type: "external", Name: name, External: ExternalRef{URL: url}}}}
}

// Icon is a page icon or cover backed by an external URL.
type Icon struct {
	Type     string      `json:"type"`
	External ExternalRef `json:"external"`
}

// ExternalIcon builds a page icon/cover from an external URL.
func ExternalIcon(url string) *Icon {
	return &Icon{Type: "external", External: ExternalRef{URL: url}}
}
