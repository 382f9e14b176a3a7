package books

import (
	"testing"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeLike(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{`plain`, `plain`},
		{`50% off`, `50\% off`},
		{`snake_case`, `snake\_case`},
		{`back\slash`, `back\\slash`},
		{`\_%`, `\\\_\%`},
	}

	for _, c := range cases {
		assert.Equal(t, c.out, escapeLike(c.in), "input %q", c.in)
	}
}

func TestListBaseQueryText(t *testing.T) {
	p := &pgxRepo{g: goqu.Dialect("postgres")}

	t.Run("title filter matches metacharacters literally", func(t *testing.T) {
		sql, _, err := p.listBase(` 50%_off\ `, nil).Select(goqu.COUNT(goqu.Star())).ToSQL()
		require.NoError(t, err)
		assert.Contains(t, sql, "ILIKE")
		assert.Contains(t, sql, `%50\%\_off\\%`)
	})

	t.Run("subject filter is a subquery", func(t *testing.T) {
		sql, _, err := p.listBase("", []int64{3, 7}).Select(goqu.COUNT(goqu.Star())).ToSQL()
		require.NoError(t, err)
		assert.NotContains(t, sql, "ILIKE")
		assert.Contains(t, sql, `IN (SELECT "book_id" FROM "book_subject"`)
	})

	t.Run("no filters means no WHERE", func(t *testing.T) {
		sql, _, err := p.listBase("   ", nil).Select(goqu.COUNT(goqu.Star())).ToSQL()
		require.NoError(t, err)
		assert.NotContains(t, sql, "WHERE")
	})
}
