package openlibrary

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Conversion factors into centimeters, the unit every stored measurement
// uses.
const (
	cmPerInch = 2.54
	cmPerMm   = 0.1

	// Average paperback thickness per page, in centimeters. Deliberately
	// rough; only consulted when an edition carries no explicit dimensions.
	cmPerPage = 0.007
)

var (
	regNumber    = regexp.MustCompile(`\d+(?:[.,]\d+)?|[.,]\d+`)
	regSeparator = regexp.MustCompile(`[x×X]`)
	regInchMark  = regexp.MustCompile(`inch|in\.|\bin\b`)
	regMmMark    = regexp.MustCompile(`millimet|\bmm\b`)
)

// ParseDimensions extracts (height, width, thickness) in centimeters from
// a free-text dimension string such as "20 x 13 x 2.5 centimeters" or
// "8.5 × 5.5 × 1.2 inches". Numbers may use a dot or comma decimal
// separator. Unknown or absent unit markers are treated as centimeters,
// the conservative default. Any input it cannot resolve to three numbers
// yields (nil, nil, nil); the parser never fails loudly.
func ParseDimensions(raw string) (height, width, thickness *float64) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil, nil
	}

	nums := parseNumbers(regNumber.FindAllString(raw, 3))

	if len(nums) < 3 {
		// Some strings bury extra text between numbers; retry segment-wise.
		nums = nums[:0]
		for _, segment := range regSeparator.Split(raw, 3) {
			if m := regNumber.FindString(segment); m != "" {
				nums = append(nums, parseNumbers([]string{m})...)
			}
		}
	}

	if len(nums) < 3 {
		return nil, nil, nil
	}

	factor := unitFactor(raw)

	h := nums[0] * factor
	w := nums[1] * factor
	t := nums[2] * factor

	return &h, &w, &t
}

func parseNumbers(tokens []string) []float64 {
	nums := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", "."), 64)
		if err != nil {
			continue
		}
		nums = append(nums, v)
	}

	return nums
}

func unitFactor(raw string) float64 {
	s := strings.ToLower(raw)

	switch {
	case regInchMark.MatchString(s):
		return cmPerInch
	case regMmMark.MatchString(s):
		return cmPerMm
	default:
		// Centimeters, spelled out or implied.
		return 1.0
	}
}

// EstimateThickness guesses a book's thickness in centimeters from its
// page count, rounded to 3 decimal places. Returns nil for unknown or
// non-positive page counts.
func EstimateThickness(pages int) *float64 {
	if pages <= 0 {
		return nil
	}

	t := math.Round(float64(pages)*cmPerPage*1000) / 1000
	return &t
}

// ChooseEdition picks the edition to source physical data from: the first
// with a dimension string, else the first with a page count, else the
// first entry, else nil. Dimensions win because they are exact; pages
// only feed the thickness estimate.
func ChooseEdition(entries []Edition) *Edition {
	for ix := range entries {
		if strings.TrimSpace(entries[ix].PhysicalDimensions) != "" {
			return &entries[ix]
		}
	}

	for ix := range entries {
		if entries[ix].NumberOfPages > 0 {
			return &entries[ix]
		}
	}

	if len(entries) > 0 {
		return &entries[0]
	}

	return nil
}
