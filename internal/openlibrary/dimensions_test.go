package openlibrary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDimensions(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		h, w, th float64
	}{
		{"centimeters spelled out", "20 x 13 x 2.5 centimeters", 20, 13, 2.5},
		{"inches with multiply sign", "8.5 × 5.5 × 1.2 inches", 21.59, 13.97, 3.048},
		{"millimeters", "210 x 148 x 20 mm", 21.0, 14.8, 2.0},
		{"comma decimals", "19,5 x 12,7 x 3,1 cm", 19.5, 12.7, 3.1},
		{"no unit defaults to cm", "20 x 13 x 2.5", 20, 13, 2.5},
		{"uppercase separator", "20 X 13 X 2.5 cm", 20, 13, 2.5},
		{"text between numbers", "height 20 cm x width 13 cm x depth 2.5 cm", 20, 13, 2.5},
		{"bare decimal point", ".5 x .5 x .5 in", 1.27, 1.27, 1.27},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h, w, th := ParseDimensions(c.raw)
			require.NotNil(t, h)
			require.NotNil(t, w)
			require.NotNil(t, th)
			assert.InDelta(t, c.h, *h, 1e-9)
			assert.InDelta(t, c.w, *w, 1e-9)
			assert.InDelta(t, c.th, *th, 1e-9)
		})
	}
}

func TestParseDimensionsUnparseable(t *testing.T) {
	for _, raw := range []string{"", "   ", "unknown", "20 x 13 cm", "just one 20"} {
		h, w, th := ParseDimensions(raw)
		assert.Nil(t, h, "input %q", raw)
		assert.Nil(t, w, "input %q", raw)
		assert.Nil(t, th, "input %q", raw)
	}
}

func TestEstimateThickness(t *testing.T) {
	got := EstimateThickness(200)
	require.NotNil(t, got)
	assert.InDelta(t, 1.4, *got, 1e-9)

	got = EstimateThickness(333)
	require.NotNil(t, got)
	assert.InDelta(t, 2.331, *got, 1e-9)

	assert.Nil(t, EstimateThickness(0))
	assert.Nil(t, EstimateThickness(-5))
}

func TestChooseEdition(t *testing.T) {
	withDims := Edition{PhysicalDimensions: "20 x 13 x 2.5 centimeters"}
	withPages := Edition{NumberOfPages: 320}
	bare := Edition{}

	t.Run("dimensions beat earlier pages", func(t *testing.T) {
		got := ChooseEdition([]Edition{withPages, bare, withDims})
		require.NotNil(t, got)
		assert.Equal(t, withDims.PhysicalDimensions, got.PhysicalDimensions)
	})

	t.Run("pages beat position", func(t *testing.T) {
		got := ChooseEdition([]Edition{bare, withPages})
		require.NotNil(t, got)
		assert.Equal(t, 320, got.NumberOfPages)
	})

	t.Run("first entry as last resort", func(t *testing.T) {
		got := ChooseEdition([]Edition{bare, bare})
		require.NotNil(t, got)
	})

	t.Run("empty slice", func(t *testing.T) {
		assert.Nil(t, ChooseEdition(nil))
	})
}
