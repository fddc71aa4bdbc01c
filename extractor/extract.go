// Package extractor measures on-page SEO signals from a rendered DOM.
package extractor

import (
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/seoaudit/models"
	"golang.org/x/net/html"
)

var (
	titleSel     = cascadia.MustCompile("title")
	metaNamedSel = cascadia.MustCompile("meta[name]")
	h1Sel        = cascadia.MustCompile("h1")
	imgSel       = cascadia.MustCompile("img")
	baseSel      = cascadia.MustCompile("base[href]")
	canonicalSel = cascadia.MustCompile("link[rel][href]")
	htmlSel      = cascadia.MustCompile("html[lang]")
	bodySel      = cascadia.MustCompile("body")
)

// Extract measures the signals of a rendered page. It never fails: a page
// whose DOM cannot be read yields empty signals, which the rules then flag.
func Extract(page *models.RenderedPage) *models.Signals {
	pageURL := page.FinalURL
	if pageURL == "" {
		pageURL = page.RequestedURL
	}
	s := FromHTML(page.HTML, pageURL)
	s.LoadTimeMillis = page.LoadTime.Milliseconds()
	s.HTTPStatus = page.StatusCode
	return s
}

// FromHTML measures the DOM-derived signals of rawHTML. pageURL resolves
// relative image sources. Load time and status are left zero.
func FromHTML(rawHTML, pageURL string) *models.Signals {
	s := &models.Signals{
		H1:     []string{},
		Images: []models.Image{},
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		slog.Warn("extractor: unreadable DOM", "url", pageURL, "error", err)
		return s
	}

	s.Title = collapseSpace(documentTitle(doc).Text())
	s.TitleLength = utf8.RuneCountInString(s.Title)

	live(doc.FindMatcher(metaNamedSel)).EachWithBreak(func(_ int, m *goquery.Selection) bool {
		name, _ := m.Attr("name")
		if !strings.EqualFold(strings.TrimSpace(name), "description") {
			return true
		}
		content, _ := m.Attr("content")
		content = strings.TrimSpace(content)
		s.Description = &content
		s.DescriptionLength = utf8.RuneCountInString(content)
		return false
	})

	live(doc.FindMatcher(h1Sel)).Each(func(_ int, h *goquery.Selection) {
		s.H1 = append(s.H1, collapseSpace(h.Text()))
	})

	base := resolveBase(doc, pageURL)
	live(doc.FindMatcher(imgSel)).Each(func(_ int, img *goquery.Selection) {
		s.Images = append(s.Images, imageOf(img, base))
	})

	s.WordCount = countWords(visibleText(doc.FindMatcher(bodySel).Nodes))

	s.Lang = strings.TrimSpace(doc.FindMatcher(htmlSel).First().AttrOr("lang", ""))
	s.Canonical = canonicalOf(doc, base)
	live(doc.FindMatcher(metaNamedSel)).EachWithBreak(func(_ int, m *goquery.Selection) bool {
		name, _ := m.Attr("name")
		if strings.EqualFold(strings.TrimSpace(name), "viewport") {
			s.HasViewport = true
			return false
		}
		return true
	})
	s.ReadableWordCount = readableWords(rawHTML, pageURL)

	return s
}

// documentTitle mirrors document.title: the first <title> in the HTML
// namespace. SVG and MathML titles are icon labels, not the page title.
func documentTitle(doc *goquery.Document) *goquery.Selection {
	return live(doc.FindMatcher(titleSel)).FilterFunction(func(_ int, t *goquery.Selection) bool {
		return t.Nodes[0].Namespace == ""
	}).First()
}

// live drops matches inside <template>. Template content is inert: the
// browser never renders it and querySelectorAll never returns it.
func live(sel *goquery.Selection) *goquery.Selection {
	return sel.FilterFunction(func(_ int, m *goquery.Selection) bool {
		return !insideTemplate(m.Nodes[0])
	})
}

func insideTemplate(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Namespace == "" && p.Data == "template" {
			return true
		}
	}
	return false
}

// resolveBase returns the URL relative references resolve against: the
// document's <base href> when present, otherwise the page URL. It returns nil
// when neither parses.
func resolveBase(doc *goquery.Document, pageURL string) *url.URL {
	page, err := url.Parse(pageURL)
	if err != nil {
		page = nil
	}
	href, ok := doc.FindMatcher(baseSel).First().Attr("href")
	if !ok {
		return page
	}
	var ref *url.URL
	if page != nil {
		ref, err = page.Parse(strings.TrimSpace(href))
	} else {
		ref, err = url.Parse(strings.TrimSpace(href))
	}
	if err != nil {
		return page
	}
	return ref
}

func imageOf(img *goquery.Selection, base *url.URL) models.Image {
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src != "" && base != nil {
		if resolved, err := base.Parse(src); err == nil {
			src = resolved.String()
		}
	}

	var alt *string
	if v, ok := img.Attr("alt"); ok {
		if v = strings.TrimSpace(v); v != "" {
			alt = &v
		}
	}
	return models.Image{Src: src, Alt: alt}
}

func canonicalOf(doc *goquery.Document, base *url.URL) string {
	var canonical string
	doc.FindMatcher(canonicalSel).EachWithBreak(func(_ int, l *goquery.Selection) bool {
		for _, rel := range strings.Fields(l.AttrOr("rel", "")) {
			if !strings.EqualFold(rel, "canonical") {
				continue
			}
			canonical = strings.TrimSpace(l.AttrOr("href", ""))
			if canonical != "" && base != nil {
				if resolved, err := base.Parse(canonical); err == nil {
					canonical = resolved.String()
				}
			}
			return false
		}
		return true
	})
	return canonical
}

// hiddenElements never contribute rendered text.
var hiddenElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// visibleText concatenates the text nodes under roots, skipping elements that
// are never rendered. Text nodes are joined with a space so adjacent block
// elements do not fuse their words.
func visibleText(roots []*html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			if hiddenElements[strings.ToLower(n.Data)] {
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return b.String()
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
