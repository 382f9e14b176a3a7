package reviews

import (
	"testing"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummariesQueryText(t *testing.T) {
	p := &pgxRepo{g: goqu.Dialect("postgres")}

	sql, _, err := p.summariesQuery([]int64{1, 2}).ToSQL()
	require.NoError(t, err)

	// avg over the 1..5 smallint must come back as a float, not numeric.
	assert.Contains(t, sql, `avg(rating)::double precision AS "average"`)
	assert.Contains(t, sql, `COUNT(*) AS "count"`)
	assert.Contains(t, sql, `GROUP BY "book_id"`)
}
