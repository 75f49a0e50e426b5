package domain

import "errors"

// MaterialKind identifies how a piece of raw material should be split
// into fragments.
type MaterialKind string

// Possible material kinds. Markdown is split like text; its fences are
// honored like code.
const (
	MaterialKindText     MaterialKind = "text"
	MaterialKindMarkdown MaterialKind = "markdown"
	MaterialKindURL      MaterialKind = "url"
	MaterialKindCode     MaterialKind = "code"
)

// ErrInvalidMaterialKind is returned when a material kind is not recognized.
var ErrInvalidMaterialKind = errors.New("invalid material kind")

// IsValidMaterialKind checks if the given kind is a valid MaterialKind.
func IsValidMaterialKind(kind MaterialKind) bool {
	switch kind {
	case MaterialKindText, MaterialKindMarkdown, MaterialKindURL, MaterialKindCode:
		return true
	default:
		return false
	}
}

// Material is one raw pasted source: text, markdown, a URL, or a code
// snippet, with any tags the user declared alongside it. No network
// fetch ever happens here; URL materials without a body are ingested as
// the URL string itself.
type Material struct {
	Kind  MaterialKind `json:"kind"`
	Title string       `json:"title,omitempty"`
	Body  string       `json:"body"`
	URL   string       `json:"url,omitempty"`
	Tags  []string     `json:"tags,omitempty"`
}

// SourceRef points a draft back at the material it was synthesized
// from, carrying the excerpts that become card evidence on commit.
type SourceRef struct {
	MaterialTitle string   `json:"material_title,omitempty"`
	URL           string   `json:"url,omitempty"`
	Excerpts      []string `json:"excerpts"`
}
