// Package classify determines the resourceType of a captured request —
// the browser's own classification of what a network load is for
// (document, script, stylesheet, image, font, xhr, …). A real browser
// integration supplies this directly from its own network stack; this
// package is the deterministic fallback used whenever a driver hands the
// mediator a request with no resourceType set (e.g. a replayed request,
// or a test fixture).
package classify

import (
	"net/url"
	"path"
	"strings"
)

// ResourceType mirrors the small, fixed vocabulary browsers use to
// classify network loads.
type ResourceType string

const (
	Document   ResourceType = "document"
	Stylesheet ResourceType = "stylesheet"
	Script     ResourceType = "script"
	Image      ResourceType = "image"
	Font       ResourceType = "font"
	XHR        ResourceType = "xhr"
	Other      ResourceType = "other"
)

var extByType = map[string]ResourceType{
	".css":   Stylesheet,
	".js":    Script,
	".mjs":   Script,
	".png":   Image,
	".jpg":   Image,
	".jpeg":  Image,
	".gif":   Image,
	".webp":  Image,
	".svg":   Image,
	".ico":   Image,
	".woff":  Font,
	".woff2": Font,
	".ttf":   Font,
	".otf":   Font,
	".eot":   Font,
}

// FromURLAndContentType classifies a request by its URL's file extension
// and, failing that, the given Content-Type — deriving a typed enum
// from the wire shape, URL first.
func FromURLAndContentType(rawURL, contentType string) ResourceType {
	if u, err := url.Parse(rawURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		if rt, ok := extByType[ext]; ok {
			return rt
		}
		if u.Path == "" || u.Path == "/" {
			return Document
		}
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "text/html"):
		return Document
	case strings.Contains(ct, "text/css"):
		return Stylesheet
	case strings.Contains(ct, "javascript"):
		return Script
	case strings.HasPrefix(ct, "image/"):
		return Image
	case strings.HasPrefix(ct, "font/"), strings.Contains(ct, "font-"):
		return Font
	case strings.Contains(ct, "application/json"), strings.Contains(ct, "xml"):
		return XHR
	default:
		return Other
	}
}
