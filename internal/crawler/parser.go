package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts anchors from rendered HTML.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. The DOM the browser serializes is already normalized, so a real parser
//     sees exactly the anchors a user would see
//  3. More maintainable than complex regex patterns
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving relative URLs.
	baseURL *url.URL
}

// ParseResult contains the information extracted from one page.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Links contains every anchor target in document order, resolved against
	// the page URL (or its <base href>). Duplicates are kept; deduplication is
	// the frontier's job.
	Links []string
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative links.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content and extracts the title and anchor targets.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links: make([]string, 0),
	}

	// <base href> must be known before any anchor is resolved, and it may
	// only appear in <head>, so it is looked up in a first pass.
	if base := findBase(doc); base != "" {
		if u, err := url.Parse(base); err == nil {
			p.baseURL = p.baseURL.ResolveReference(u)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, result)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// processElement handles HTML element nodes.
func (p *Parser) processElement(n *html.Node, result *ParseResult) {
	switch n.Data {
	case "title":
		if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			result.Title = strings.TrimSpace(n.FirstChild.Data)
		}

	case "a":
		if href := getAttr(n, "href"); href != "" {
			if resolved := p.resolveURL(href); resolved != "" {
				result.Links = append(result.Links, resolved)
			}
		}
	}
}

// findBase returns the href of the first <base> element, if any.
func findBase(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "base" {
		return getAttr(n, "href")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := findBase(c); href != "" {
			return href
		}
	}
	return ""
}

// resolveURL resolves a relative URL against the base URL.
// Non-navigational targets (scripts, mail, phone, inline data) resolve to "".
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return p.baseURL.ResolveReference(u).String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
