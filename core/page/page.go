package page

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is a parsed HTML document
type Page struct {
	doc *goquery.Document
}

// Parse reads an HTML document
func Parse(body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %v", err)
	}
	return &Page{doc: doc}, nil
}

// Title returns the trimmed <title> text
func (p *Page) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// Lines returns every non-empty text node of the document, trimmed, in
// document order. Script and style contents are not text.
func (p *Page) Lines() []string {
	var lines []string
	for _, root := range p.doc.Nodes {
		lines = collectStrings(root, lines)
	}
	return lines
}

func collectStrings(n *html.Node, lines []string) []string {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "template":
			return lines
		}
	}

	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			lines = append(lines, text)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		lines = collectStrings(c, lines)
	}
	return lines
}

/*
   ReleaseYear reads the publication year from the first <time> element:
   its text lines joined together, last four characters parsed as a year.
   Pages without a <time> element are assumed to be from fallbackYear.
*/
func (p *Page) ReleaseYear(fallbackYear int) (int, error) {
	timeElement := p.doc.Find("time").First()
	if timeElement.Length() == 0 {
		return fallbackYear, nil
	}

	var parts []string
	for _, n := range timeElement.Nodes {
		parts = collectStrings(n, parts)
	}
	text := strings.Join(parts, "\n")

	if len(text) < 4 {
		return 0, fmt.Errorf("release date %q is too short", text)
	}

	year, err := strconv.Atoi(text[len(text)-4:])
	if err != nil {
		return 0, fmt.Errorf("invalid release date %q: %v", text, err)
	}
	return year, nil
}

// LinesFromText splits plain text into trimmed, non-empty lines
func LinesFromText(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
