package mail

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlToTextWithLinks converts an HTML body to plain text, rewriting
// anchors as "text (url)" (or the bare url when the anchor has no text)
// so the analysis model sees every link. Script and style content is
// dropped and all whitespace collapses to single spaces.
func htmlToTextWithLinks(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	doc.Find("script, style").Remove()
	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, ok := anchor.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		text := strings.TrimSpace(anchor.Text())
		if text == "" {
			anchor.SetText(href)
			return
		}
		anchor.SetText(fmt.Sprintf("%s (%s)", text, href))
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}
