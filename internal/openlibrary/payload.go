package openlibrary

import (
	"context"
	"math"

	"bookshelf/internal/types"
)

// BuildImportPayload turns one search hit into a normalized payload ready
// for the catalog: it issues exactly one editions call for the hit's
// work, picks the best edition, parses its dimension string and falls
// back to the page-count thickness estimate. Measurements are stored as
// whole centimeters, rounded half away from zero.
//
// Failures degrade instead of propagating: when the editions call fails
// or the work has none, the payload simply carries no physical data and
// the book can still be created from the hit's metadata.
func (c *Client) BuildImportPayload(ctx context.Context, hit types.SearchHit) types.ImportPayload {
	payload := types.ImportPayload{
		ExternalId: hit.ExternalId,
		Title:      hit.Title,
		Year:       hit.Year,
		CoverUrl:   hit.CoverUrl,
		Language:   hit.Language,
		Authors:    hit.Authors,
		Subjects:   hit.Subjects,
	}

	if hit.ExternalId == "" {
		return payload
	}

	entries, err := c.FetchEditionData(ctx, hit.ExternalId)
	if err != nil {
		c.Logger.WarnContext(ctx, "Importing "+hit.ExternalId+" without dimensions: "+err.Error())
		return payload
	}

	ed := ChooseEdition(entries)
	if ed == nil {
		return payload
	}

	height, width, thickness := ParseDimensions(ed.PhysicalDimensions)

	if thickness == nil && ed.NumberOfPages > 0 {
		thickness = EstimateThickness(ed.NumberOfPages)
	}

	payload.HeightCm = roundCm(height)
	payload.WidthCm = roundCm(width)
	payload.ThicknessCm = roundCm(thickness)
	payload.Pages = ed.NumberOfPages

	return payload
}

func roundCm(v *float64) int {
	if v == nil {
		return 0
	}

	return int(math.Round(*v))
}
