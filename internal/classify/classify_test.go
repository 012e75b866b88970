package classify

import "testing"

func TestFromURLExtension(t *testing.T) {
	cases := map[string]ResourceType{
		"https://a.example/app.js":     Script,
		"https://a.example/styles.css": Stylesheet,
		"https://a.example/logo.png":   Image,
		"https://a.example/font.woff2": Font,
		"https://a.example/":           Document,
	}
	for u, want := range cases {
		if got := FromURLAndContentType(u, ""); got != want {
			t.Errorf("%s: got %s, want %s", u, got, want)
		}
	}
}

func TestFallsBackToContentType(t *testing.T) {
	if got := FromURLAndContentType("https://a.example/api/v1/thing", "application/json"); got != XHR {
		t.Fatalf("got %s", got)
	}
	if got := FromURLAndContentType("https://a.example/api/v1/thing", "text/html; charset=utf-8"); got != Document {
		t.Fatalf("got %s", got)
	}
}

func TestUnknownFallsBackToOther(t *testing.T) {
	if got := FromURLAndContentType("https://a.example/api/v1/thing", "application/octet-stream"); got != Other {
		t.Fatalf("got %s", got)
	}
}
