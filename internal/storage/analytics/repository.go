package analytics

import "context"

type VolumeRow struct {
	BookId    int64   `json:"book_id"`
	Title     string  `json:"title"`
	VolumeCm3 float64 `json:"volume_cm3"`
}

type ShelfSpaceRow struct {
	Username  string  `json:"username"`
	BookId    int64   `json:"book_id"`
	Title     string  `json:"title"`
	VolumeCm3 float64 `json:"volume_cm3"`
}

type Repository interface {
	// LargestVolumes returns the biggest books by height×width×thickness
	// among those with all three measurements present.
	LargestVolumes(ctx context.Context, limit int) ([]VolumeRow, error)

	// ShelfSpaceByUser returns one row per (user, reviewed book) with the
	// book's volume; a book counts toward each user who reviewed it.
	ShelfSpaceByUser(ctx context.Context) ([]ShelfSpaceRow, error)
}
