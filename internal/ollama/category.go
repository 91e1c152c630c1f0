package ollama

import "strings"

// Category selects which configured model serves a request.
type Category int

const (
	General Category = iota
	Document
	Chat
	Video
)

// Categories lists every category in a stable order.
var Categories = []Category{General, Document, Chat, Video}

func (c Category) String() string {
	switch c {
	case Document:
		return "document"
	case Chat:
		return "chat"
	case Video:
		return "video"
	default:
		return "general"
	}
}

// ParseCategory maps a case-insensitive name to a Category. Unknown names map to General.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "document":
		return Document
	case "chat":
		return Chat
	case "video":
		return Video
	default:
		return General
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}
