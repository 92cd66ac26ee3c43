package adapter

// TextExtractor turns an uploaded document file into plain text.
// PDF parsing lives behind this port; the core never sees file formats.
type TextExtractor interface {
	Extract(path string) (string, error)
}
