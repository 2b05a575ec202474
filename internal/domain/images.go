package domain

import "regexp"

// Per-page harvest caps. Backend-declared img_src hints are not capped;
// legacy raw_content extraction and crawl markdown extraction are.
const (
	MaxImagesPerRawContent = 3
	MaxImagesPerCrawl      = 5
)

// ImageRef points at an image found on a source page. Deduplication is not
// required.
type ImageRef struct {
	URL         string `json:"url"`
	SourceURL   string `json:"source"`
	SourceTitle string `json:"title"`
}

var (
	htmlImgPattern     = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)
	markdownImgPattern = regexp.MustCompile(`!\[.*?\]\((https?://[^\)]+)\)`)
)

// ExtractHTMLImages pulls up to limit absolute image URLs out of <img> tags.
func ExtractHTMLImages(html string, limit int) []string {
	matches := htmlImgPattern.FindAllStringSubmatch(html, -1)
	var urls []string
	for _, m := range matches {
		if len(urls) >= limit {
			break
		}
		if len(m[1]) >= 4 && m[1][:4] == "http" {
			urls = append(urls, m[1])
		}
	}
	return urls
}

// ExtractMarkdownImages pulls up to limit image URLs out of markdown image
// syntax. Only absolute http(s) URLs are matched.
func ExtractMarkdownImages(markdown string, limit int) []string {
	matches := markdownImgPattern.FindAllStringSubmatch(markdown, -1)
	var urls []string
	for _, m := range matches {
		if len(urls) >= limit {
			break
		}
		urls = append(urls, m[1])
	}
	return urls
}
