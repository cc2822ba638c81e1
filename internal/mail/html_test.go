package mail

import "testing"

func TestHTMLToTextKeepsLinkTargets(t *testing.T) {
	html := `<html><body><p>Check out <a href="https://example.com/launch">the launch</a> today.</p></body></html>`

	got := htmlToTextWithLinks(html)
	want := "Check out the launch (https://example.com/launch) today."
	if got != want {
		t.Fatalf("htmlToTextWithLinks = %q, want %q", got, want)
	}
}

func TestHTMLToTextBareAnchorBecomesURL(t *testing.T) {
	html := `<p>Source: <a href="https://example.com/ref"></a></p>`

	got := htmlToTextWithLinks(html)
	want := "Source: https://example.com/ref"
	if got != want {
		t.Fatalf("htmlToTextWithLinks = %q, want %q", got, want)
	}
}

func TestHTMLToTextDropsScriptAndStyle(t *testing.T) {
	html := `<html><head><style>.x{color:red}</style></head><body><script>alert(1)</script><p>visible</p></body></html>`

	if got := htmlToTextWithLinks(html); got != "visible" {
		t.Fatalf("htmlToTextWithLinks = %q, want %q", got, "visible")
	}
}

func TestHTMLToTextCollapsesWhitespace(t *testing.T) {
	html := "<p>one\n\n   two</p>\n<p>three</p>"

	if got := htmlToTextWithLinks(html); got != "one two three" {
		t.Fatalf("htmlToTextWithLinks = %q, want %q", got, "one two three")
	}
}
