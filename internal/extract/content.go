// Package extract pulls title, description, and readable body text out of
// arbitrary HTML. It is tolerant by construction: malformed input yields
// empty fields, never an error.
package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// maxBodyChars bounds the extracted body text. Pages routinely run to
// megabytes; similarity only needs the leading content.
const maxBodyChars = 5000

// Page holds the extracted fields. Absent fields are empty strings.
type Page struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Body    string `json:"body"`
}

// Content extracts title, snippet, and body text from raw HTML.
//
// Script and style subtrees are excluded from every field. The title comes
// from the first <title> element, falling back to the og:title meta; the
// snippet from the description meta, falling back to og:description; the body
// from the text of the first <body> with tags collapsed to spaces.
func Content(rawHTML string) Page {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		// html.Parse recovers from malformed markup; an error here means the
		// reader failed, which a strings.Reader cannot. Degrade to empty.
		return Page{}
	}

	var page Page
	var ogTitle, ogDescription string
	var bodyText strings.Builder
	inBody := false

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "title":
				if page.Title == "" {
					page.Title = collapseWhitespace(textContent(n))
				}
			case "meta":
				name := attr(n, "name")
				property := attr(n, "property")
				content := attr(n, "content")
				switch {
				case strings.EqualFold(name, "description") && page.Snippet == "":
					page.Snippet = collapseWhitespace(content)
				case strings.EqualFold(property, "og:description") && ogDescription == "":
					ogDescription = collapseWhitespace(content)
				case strings.EqualFold(property, "og:title") && ogTitle == "":
					ogTitle = collapseWhitespace(content)
				}
			case "body":
				if !inBody {
					inBody = true
					defer func() { inBody = false }()
				}
			}
		}

		if inBody && n.Type == html.TextNode {
			bodyText.WriteString(n.Data)
			bodyText.WriteByte(' ')
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if page.Title == "" {
		page.Title = ogTitle
	}
	if page.Snippet == "" {
		page.Snippet = ogDescription
	}
	page.Body = truncate(collapseWhitespace(bodyText.String()), maxBodyChars)

	return page
}

// attr returns the value of the named attribute, matching case-insensitively.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// textContent concatenates all text nodes under n, skipping script and style.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// collapseWhitespace trims and folds internal whitespace runs to one space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
