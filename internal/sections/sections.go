package sections

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Item is one parsed record within a section. A single line shape is
// populated per item: numbered link entries carry Number/Title/Link,
// labelled bullets carry Key/Value, and plain bullets carry Text.
// Extra holds additional fields found on structured JSON records.
type Item struct {
	Number string            `json:"number,omitempty"`
	Title  string            `json:"title,omitempty"`
	Link   string            `json:"link,omitempty"`
	Key    string            `json:"key,omitempty"`
	Value  string            `json:"value,omitempty"`
	Text   string            `json:"text,omitempty"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// Section groups parsed items under the heading they appeared beneath.
type Section struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// sectionMarkers are the emoji prefixes the analysis prompts use for
// markdown section headings.
var sectionMarkers = []string{"🔥", "📌", "🎯", "💡", "📊", "⚠️", "✅", "🔗"}

// numberedLinkPattern matches "1. Some title - http://example.com" entries
// in the top-items section.
var numberedLinkPattern = regexp.MustCompile(`^(\d+)\.\s+(.*?)\s*[-–—]\s*(https?://\S+)\s*$`)

// ParseAnalysis converts raw model output into sections. JSON documents
// carrying a sections array are converted directly; everything else is
// scanned with the markdown heading rules. Sections that end up with no
// items are dropped, and malformed input yields an empty result rather
// than an error.
func ParseAnalysis(raw string) []Section {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if parsed, ok := parseJSONSections(trimmed); ok {
			return parsed
		}
	}
	return parseMarkdownSections(trimmed)
}

type jsonSection struct {
	Title         string           `json:"title"`
	Opportunities []map[string]any `json:"opportunities"`
	Items         []map[string]any `json:"items"`
}

func parseJSONSections(text string) ([]Section, bool) {
	var doc struct {
		Sections []jsonSection `json:"sections"`
	}
	if err := json.Unmarshal([]byte(text), &doc); err == nil {
		return convertJSONSections(doc.Sections), true
	}
	var list []jsonSection
	if err := json.Unmarshal([]byte(text), &list); err == nil {
		return convertJSONSections(list), true
	}
	return nil, false
}

func convertJSONSections(raw []jsonSection) []Section {
	var out []Section
	for _, sec := range raw {
		records := sec.Opportunities
		if len(records) == 0 {
			records = sec.Items
		}
		items := make([]Item, 0, len(records))
		for _, record := range records {
			if item, ok := convertRecord(record); ok {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			continue
		}
		out = append(out, Section{Title: strings.TrimSpace(sec.Title), Items: items})
	}
	return out
}

// convertRecord maps one structured record onto an Item. Well-known keys
// land on the named fields; everything else is preserved in Extra so the
// display layer can still show it.
func convertRecord(record map[string]any) (Item, bool) {
	var item Item
	extra := make(map[string]string)
	for key, value := range record {
		text := stringifyValue(value)
		if text == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "number":
			item.Number = text
		case "title", "name":
			item.Title = text
		case "link", "url":
			item.Link = text
		case "key":
			item.Key = text
		case "value":
			item.Value = text
		case "text", "description":
			item.Text = text
		default:
			extra[key] = text
		}
	}
	if len(extra) > 0 {
		item.Extra = extra
	}
	empty := item.Number == "" && item.Title == "" && item.Link == "" &&
		item.Key == "" && item.Value == "" && item.Text == "" && len(item.Extra) == 0
	return item, !empty
}

func stringifyValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func parseMarkdownSections(text string) []Section {
	var out []Section
	var current *Section
	flush := func() {
		if current != nil && len(current.Items) > 0 {
			out = append(out, *current)
		}
		current = nil
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if title, ok := headingTitle(line); ok {
			flush()
			current = &Section{Title: title}
			continue
		}
		if current == nil {
			continue
		}
		if item, ok := parseItemLine(line, isTopSection(current.Title)); ok {
			current.Items = append(current.Items, item)
		}
	}
	flush()
	return out
}

// headingTitle reports whether a line opens a new section. Emoji-marked
// headings keep the marker in the title; ## and ### headings are stripped
// of their hashes. A trailing colon is dropped either way.
func headingTitle(line string) (string, bool) {
	for _, marker := range sectionMarkers {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSuffix(line, ":"), true
		}
	}
	if strings.HasPrefix(line, "##") {
		title := strings.TrimSpace(strings.TrimLeft(line, "#"))
		return strings.TrimSuffix(title, ":"), true
	}
	return "", false
}

// isTopSection designates the numbered-list section by its title.
func isTopSection(title string) bool {
	return strings.Contains(strings.ToLower(title), "top")
}

func parseItemLine(line string, top bool) (Item, bool) {
	if top {
		match := numberedLinkPattern.FindStringSubmatch(line)
		if match == nil {
			return Item{}, false
		}
		return Item{Number: match[1], Title: strings.TrimSpace(match[2]), Link: match[3]}, true
	}
	rest, ok := strings.CutPrefix(line, "- ")
	if !ok {
		return Item{}, false
	}
	// "Key: Value" needs the space after the colon so bare URLs stay
	// plain-text bullets.
	if key, value, found := strings.Cut(rest, ": "); found {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key != "" && value != "" {
			return Item{Key: key, Value: value}, true
		}
	}
	text := strings.TrimSpace(rest)
	if text == "" {
		return Item{}, false
	}
	return Item{Text: text}, true
}
