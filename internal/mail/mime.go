package mail

import (
	"encoding/base64"
	"strings"

	gmailv1 "google.golang.org/api/gmail/v1"
)

// extractBody pulls the displayable text out of a message payload. A
// body on the payload itself is decoded as-is; multipart messages are
// walked depth first, preferring the first text/html leaf (converted to
// text with links preserved) over the last text/plain leaf.
func extractBody(payload *gmailv1.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.Body != nil && payload.Body.Data != "" {
		return strings.TrimSpace(decodeBase64URL(payload.Body.Data))
	}
	var html, plain string
	collectTextParts(payload.Parts, &html, &plain)
	if html != "" {
		return strings.TrimSpace(htmlToTextWithLinks(html))
	}
	return strings.TrimSpace(plain)
}

func collectTextParts(parts []*gmailv1.MessagePart, html, plain *string) {
	for _, part := range parts {
		if part == nil {
			continue
		}
		if part.Body != nil && part.Body.Data != "" {
			switch part.MimeType {
			case "text/html":
				if *html == "" {
					*html = decodeBase64URL(part.Body.Data)
				}
			case "text/plain":
				*plain = decodeBase64URL(part.Body.Data)
			}
		}
		collectTextParts(part.Parts, html, plain)
	}
}

// decodeBase64URL decodes Gmail body data, accepting both padded and
// unpadded forms. Undecodable data yields an empty string.
func decodeBase64URL(data string) string {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return ""
}

// headerValue finds a header by name, case-insensitively.
func headerValue(headers []*gmailv1.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header != nil && strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}
