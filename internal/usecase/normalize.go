package usecase

import (
	"log/slog"

	"research-orchestrator/internal/domain"
)

// NormalizeOutput is the deduplicated result table plus the images harvested
// from backend hints and any raw content the backend already delivered.
type NormalizeOutput struct {
	Set    *domain.UniqueResultSet
	Images []domain.ImageRef
}

// ResultNormalizer folds the per-query responses into a URL-keyed table.
// The first occurrence of a URL wins; later duplicates are dropped but may
// still contribute images.
type ResultNormalizer struct {
	logger *slog.Logger
}

func NewResultNormalizer(logger *slog.Logger) *ResultNormalizer {
	return &ResultNormalizer{logger: logger}
}

func (n *ResultNormalizer) Normalize(responses []domain.BackendResponse) *NormalizeOutput {
	out := &NormalizeOutput{Set: domain.NewUniqueResultSet()}
	duplicates := 0

	for _, resp := range responses {
		// Envelope-level images have no owning page; attribute them to the
		// query that produced them.
		for _, img := range resp.Images {
			out.Images = append(out.Images, domain.ImageRef{
				URL:         img,
				SourceTitle: resp.Query,
			})
		}

		for _, result := range resp.Results {
			if result.URL == "" {
				continue
			}
			if !out.Set.Add(result, resp.Query) {
				duplicates++
			}
			// img_src and raw_content images are harvested even for
			// duplicate URLs.
			if result.ImgSrc != "" {
				out.Images = append(out.Images, domain.ImageRef{
					URL:         result.ImgSrc,
					SourceURL:   result.URL,
					SourceTitle: result.Title,
				})
			}
			if result.RawContent != "" {
				for _, img := range domain.ExtractHTMLImages(result.RawContent, domain.MaxImagesPerRawContent) {
					out.Images = append(out.Images, domain.ImageRef{
						URL:         img,
						SourceURL:   result.URL,
						SourceTitle: result.Title,
					})
				}
			}
		}
	}

	n.logger.Info("normalize_completed",
		slog.Int("unique_urls", out.Set.Len()),
		slog.Int("duplicates_dropped", duplicates),
		slog.Int("images_harvested", len(out.Images)))

	return out
}
