package series

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketTiming/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtractCleansAndCounts(t *testing.T) {
	raw := &models.RawTable{
		Key:    "nifty50",
		Header: []string{"\ufeffDate ", " Close", "Volume"},
		Rows: [][]string{
			{"2024-01-03", "21,517.35", "1"},
			{"2024-01-01", "21741.90", "1"},
			{"not a date", "21700", "1"},
			{"2024-01-02", "-", "1"},
			{"2024-01-03", "21520.00", "1"},
			{"2024-01-04"},
		},
	}
	d := models.SeriesDescriptor{Name: "Nifty50", DateColumn: "Date", ValueColumn: "Close", Frequency: models.FrequencyDaily}

	s, st, err := NewExtractor(BondYield{}).Extract(raw, d)
	require.NoError(t, err)

	assert.Equal(t, 2, st.Rows)
	assert.Equal(t, 3, st.Dropped)
	require.Len(t, s.Points, 2)
	assert.Equal(t, day(2024, 1, 1), s.Points[0].Date)
	assert.Equal(t, day(2024, 1, 3), s.Points[1].Date)
	assert.InDelta(t, 21520.00, s.Points[1].Value, 1e-9, "later duplicate wins")
}

func TestExtractFilterAndBondTransform(t *testing.T) {
	raw := &models.RawTable{
		Key:    "pe_data",
		Header: []string{"Date", "Index", "PE_Ratio"},
		Rows: [][]string{
			{"2024-01-31", "Nifty 50", "22.5"},
			{"2024-01-31", "Nifty Midcap 100", "30.1"},
			{"2024-02-29", "Nifty 50", "23.0"},
		},
	}
	d := models.SeriesDescriptor{
		Name: "Nifty50_PE", DateColumn: "Date", ValueColumn: "PE_Ratio",
		Filter: &models.RowFilter{Column: "Index", Equals: "Nifty 50"},
	}
	s, _, err := NewExtractor(BondYield{}).Extract(raw, d)
	require.NoError(t, err)
	require.Len(t, s.Points, 2)
	assert.InDelta(t, 23.0, s.Points[1].Value, 1e-9)

	bond := &models.RawTable{Header: []string{"Date", "Close"}, Rows: [][]string{{"2024-01-01", "98.5"}}}
	g, _, err := NewExtractor(BondYield{Anchor: 7.2, Slope: 0.08}).Extract(bond, models.SeriesDescriptor{
		Name: "GSec_Yield", DateColumn: "Date", ValueColumn: "Close", Transform: TransformBondPriceToYield,
	})
	require.NoError(t, err)
	assert.InDelta(t, 7.32, g.Points[0].Value, 1e-9)
}

func TestExtractDateLayout(t *testing.T) {
	raw := &models.RawTable{
		Key:    "vix",
		Header: []string{"Date", "Close"},
		Rows: [][]string{
			{"05/04/2024", "12.1"},
			{"13/04/2024", "12.4"},
		},
	}
	d := models.SeriesDescriptor{Name: "VIX", DateColumn: "Date", ValueColumn: "Close"}

	// month-first by default: 13/04 is not a date
	s, st, err := NewExtractor(BondYield{}).Extract(raw, d)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Dropped)
	assert.Equal(t, day(2024, 5, 4), s.Points[0].Date)

	d.DateLayout = "02/01/2006"
	s, st, err = NewExtractor(BondYield{}).Extract(raw, d)
	require.NoError(t, err)
	assert.Zero(t, st.Dropped)
	require.Len(t, s.Points, 2)
	assert.Equal(t, day(2024, 4, 5), s.Points[0].Date)
	assert.Equal(t, day(2024, 4, 13), s.Points[1].Date)
}

func TestExtractUnavailable(t *testing.T) {
	d := models.SeriesDescriptor{Name: "VIX", DateColumn: "Date", ValueColumn: "VIX_Close"}
	ex := NewExtractor(BondYield{})

	_, _, err := ex.Extract(&models.RawTable{Header: []string{"Date", "Close"}}, d)
	var unavailable *models.SeriesUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "VIX", unavailable.Series)
	assert.ErrorIs(t, err, models.ErrColumnMissing)

	_, _, err = ex.Extract(&models.RawTable{Header: []string{"Date", "VIX_Close"}, Rows: [][]string{{"x", "y"}}}, d)
	assert.ErrorIs(t, err, models.ErrEmptySeries)

	_, _, err = ex.Extract(nil, d)
	assert.ErrorIs(t, err, models.ErrSourceNotFound)
}
