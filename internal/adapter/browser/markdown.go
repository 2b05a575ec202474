package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const (
	// Blocks shorter than this many words are boilerplate unless they carry
	// an image or heading.
	minWordThreshold = 10

	// defaultPruneThreshold rejects blocks whose content score falls below it.
	defaultPruneThreshold = 0.3
)

var stripPolicy = bluemonday.StrictPolicy()

// ProjectMarkdown converts a rendered HTML document into pruned markdown.
// Navigation chrome and link farms are dropped; headings, paragraphs, list
// items, code blocks and inline images survive.
func ProjectMarkdown(html string, threshold float64) string {
	trimmed := strings.TrimSpace(html)
	if trimmed == "" {
		return ""
	}
	if threshold <= 0 {
		threshold = defaultPruneThreshold
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return normalizeText(stripPolicy.Sanitize(trimmed))
	}

	doc.Find("header, footer, iframe, nav").Remove()
	doc.Find("script, style, noscript, svg, form, button, aside").Remove()
	doc.Find("[class*='cookie'], [class*='consent'], [class*='popup'], [class*='modal'], [id*='cookie']").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var blocks []string
	root.Find("h1, h2, h3, h4, h5, h6, p, li, pre, img, blockquote").Each(func(_ int, s *goquery.Selection) {
		block := renderBlock(s, threshold)
		if block != "" {
			blocks = append(blocks, block)
		}
	})

	return strings.Join(blocks, "\n\n")
}

func renderBlock(s *goquery.Selection, threshold float64) string {
	tag := goquery.NodeName(s)

	if tag == "img" {
		// Images inside text blocks are rendered inline with their block.
		if s.ParentsFiltered("p, li, blockquote").Length() > 0 {
			return ""
		}
		return renderImage(s)
	}

	text := normalizeText(s.Text())

	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if text == "" {
			return ""
		}
		level := int(tag[1] - '0')
		return strings.Repeat("#", level) + " " + text
	case "pre":
		raw := strings.TrimRight(s.Text(), "\n")
		if strings.TrimSpace(raw) == "" {
			return ""
		}
		return "```\n" + raw + "\n```"
	case "blockquote":
		if !acceptBlock(s, text, threshold) {
			return ""
		}
		return "> " + text
	case "li":
		// Skip nested containers so a list is not emitted twice.
		if s.Find("li").Length() > 0 {
			return ""
		}
		if !acceptBlock(s, text, threshold) {
			return ""
		}
		return "- " + text
	default:
		if !acceptBlock(s, text, threshold) {
			return ""
		}
		if img := renderInlineImages(s); img != "" {
			return text + "\n\n" + img
		}
		return text
	}
}

// acceptBlock applies the pruning rule: too few words is boilerplate, and a
// block dominated by link text is navigation no matter its length.
func acceptBlock(s *goquery.Selection, text string, threshold float64) bool {
	words := len(strings.Fields(text))
	if words == 0 {
		return false
	}
	if words < minWordThreshold && s.Find("img").Length() == 0 {
		return false
	}

	linkWords := 0
	s.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkWords += len(strings.Fields(a.Text()))
	})
	score := 1.0 - float64(linkWords)/float64(words)
	return score >= threshold
}

func renderImage(s *goquery.Selection) string {
	src, ok := s.Attr("src")
	if !ok || !strings.HasPrefix(src, "http") {
		return ""
	}
	alt, _ := s.Attr("alt")
	return fmt.Sprintf("![%s](%s)", normalizeText(alt), src)
}

func renderInlineImages(s *goquery.Selection) string {
	var images []string
	s.Find("img").Each(func(_ int, img *goquery.Selection) {
		if rendered := renderImage(img); rendered != "" {
			images = append(images, rendered)
		}
	})
	return strings.Join(images, "\n")
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(stripPolicy.Sanitize(s)), " ")
}
