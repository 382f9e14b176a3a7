package types

import "time"

// Book formats form a closed set; the zero value means "unset".
const (
	FormatPaperback = "paperback"
	FormatHardcover = "hardcover"
	FormatEbook     = "ebook"
	FormatOther     = "other"
)

// Book is the central catalog entity. Optional numeric fields use 0 as
// "unknown" and optional strings use ""; physical measurements are whole
// centimeters.
type Book struct {
	Id          int64    `json:"id"`
	ExternalId  string   `json:"external_id,omitempty"`
	Title       string   `json:"title"`
	Year        int      `json:"year,omitempty"`
	Description string   `json:"description,omitempty"`
	CoverUrl    string   `json:"cover_url,omitempty"`
	Language    string   `json:"language,omitempty"`
	HeightCm    int      `json:"height_cm,omitempty"`
	WidthCm     int      `json:"width_cm,omitempty"`
	ThicknessCm int      `json:"thickness_cm,omitempty"`
	Pages       int      `json:"pages,omitempty"`
	Format      string   `json:"format,omitempty"`
	Authors     []int64  `json:"author_ids"`
	Subjects    []string `json:"subjects"`
}

type Author struct {
	Id   int64  `json:"id"`
	Name string `json:"name"`
}

type Subject struct {
	Id   int64  `json:"id"`
	Name string `json:"name"`
}

type User struct {
	Id        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Review holds one user's rating of one book; at most one exists per
// (user, book) pair. BookTitle is filled by listing queries only.
type Review struct {
	Id        int64     `json:"id"`
	UserId    int64     `json:"user_id"`
	BookId    int64     `json:"book_id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	BookTitle string    `json:"book_title,omitempty"`
}

type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
