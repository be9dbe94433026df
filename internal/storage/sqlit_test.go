package storage

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superinvestorResearch/internal/dataroma"
	"superinvestorResearch/internal/htmltable"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenSQLite("file:" + t.Name() + "?mode=memory&cache=shared&_fk=1")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSchema(db))
	require.NoError(t, InitSchema(db), "schema creation is idempotent")
	return NewStore(db)
}

func TestHoldingsPerRun(t *testing.T) {
	s := newStore(t)
	at := time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC)
	first, err := s.NewRun("dataroma", at)
	require.NoError(t, err)
	second, err := s.NewRun("dataroma", at.Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	h := dataroma.Holding{
		Investor:     "Warren Buffett - Berkshire Hathaway",
		Stock:        "AAPL - Apple Inc.",
		PortfolioPct: decimal.RequireFromString("26.24"),
		Shares:       300000000,
		Value:        decimal.RequireFromString("69900000000"),
	}
	require.NoError(t, s.SaveHoldings(first, []dataroma.Holding{h}))

	got, err := s.Holdings(first)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, h.Stock, got[0].Stock)
	assert.Equal(t, h.Shares, got[0].Shares)
	assert.True(t, h.Value.Equal(got[0].Value))

	got, err = s.Holdings(second)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTableRoundTrip(t *testing.T) {
	s := newStore(t)
	run, err := s.NewRun("wikipedia", time.Unix(0, 0))
	require.NoError(t, err)

	tbl := htmltable.Table{
		Headers: []string{"Symbol", "Headquarters Location"},
		Rows:    [][]string{{"MMM", "Saint Paul, Minnesota"}, {"AOS", "Milwaukee, Wisconsin"}},
	}
	require.NoError(t, s.SaveTable(run, "sp500_table_0", tbl))

	got, err := s.Table(run, "sp500_table_0")
	require.NoError(t, err)
	assert.Equal(t, tbl, got)

	_, err = s.Table(run, "sp500_table_9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
