package service

import "strings"

// Kind is the handling strategy chosen for an upstream response.
type Kind int

// Classes in priority order: a media type matching several substrings takes
// the first one listed.
const (
	KindJSON Kind = iota
	KindHTML
	KindImage
	KindUnrecognized
	KindMissing
)

var kindNames = [...]string{
	KindJSON:         "json",
	KindHTML:         "html",
	KindImage:        "image",
	KindUnrecognized: "unrecognized",
	KindMissing:      "missing",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Classification is the result of inspecting a Content-Type header.
type Classification struct {
	Kind Kind
	// MediaType is the header value exactly as the upstream sent it.
	MediaType string
}

// Classify maps a Content-Type value to a handling strategy using a
// case-insensitive substring match. An empty value is KindMissing.
func Classify(contentType string) Classification {
	c := Classification{MediaType: contentType}
	lower := strings.ToLower(contentType)
	switch {
	case strings.Contains(lower, "json"):
		c.Kind = KindJSON
	case strings.Contains(lower, "html"):
		c.Kind = KindHTML
	case strings.Contains(lower, "image"):
		c.Kind = KindImage
	case contentType != "":
		c.Kind = KindUnrecognized
	default:
		c.Kind = KindMissing
	}
	return c
}
