package types

// SearchHit is a lightweight work-level result from the external catalog,
// enough to render a pick list and to drive a later import.
type SearchHit struct {
	ExternalId string   `json:"external_id"`
	Title      string   `json:"title"`
	Year       int      `json:"year,omitempty"`
	Authors    []string `json:"authors"`
	Subjects   []string `json:"subjects,omitempty"`
	CoverUrl   string   `json:"cover_url,omitempty"`
	Language   string   `json:"language,omitempty"`
}

// ImportPayload is a fully normalized book record ready for the catalog
// upsert: dimensions in whole centimeters, authors as plain names.
// Zero-valued measurement fields mean the value could not be determined.
type ImportPayload struct {
	ExternalId  string   `json:"external_id,omitempty"`
	Title       string   `json:"title"`
	Year        int      `json:"year,omitempty"`
	Description string   `json:"description,omitempty"`
	CoverUrl    string   `json:"cover_url,omitempty"`
	Language    string   `json:"language,omitempty"`
	Authors     []string `json:"authors"`
	Subjects    []string `json:"subjects,omitempty"`
	HeightCm    int      `json:"height_cm,omitempty"`
	WidthCm     int      `json:"width_cm,omitempty"`
	ThicknessCm int      `json:"thickness_cm,omitempty"`
	Pages       int      `json:"pages,omitempty"`
}
