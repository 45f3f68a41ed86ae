package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-03-15",
		"2024-03-15T09:15:00Z",
		"2024-03-15 00:00:00",
		"15-Mar-2024",
		"15 Mar 2024",
		"Mar 15, 2024",
		"15-03-2024",
		"2024/03/15",
		"03/15/2024",
		"2024-03-15 00:00:00+05:30",
		"  2024-03-15 ",
	} {
		got, ok := ParseDate(s)
		require.True(t, ok, s)
		assert.True(t, want.Equal(got), "%s parsed as %v", s, got)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "yesterday", "2024-13-45", "15/15/2024"} {
		_, ok := ParseDate(s)
		assert.False(t, ok, s)
	}
}

func TestParseDateInDayFirst(t *testing.T) {
	got, ok := ParseDate("05/04/2024")
	require.True(t, ok)
	assert.Equal(t, time.May, got.Month())

	got, ok = ParseDateIn(" 05/04/2024", "02/01/2006")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseDateIn("13/04/2024", "02/01/2006")
	require.True(t, ok)
	assert.Equal(t, 13, got.Day())

	_, ok = ParseDateIn("2024-04-13", "02/01/2006")
	assert.False(t, ok)

	got, ok = ParseDateIn("2024-04-13", "")
	require.True(t, ok)
	assert.Equal(t, 13, got.Day())
}

func TestParseNumber(t *testing.T) {
	cases := map[string]struct {
		v  float64
		ok bool
	}{
		"22.45":      {22.45, true},
		"21,731.40":  {21731.40, true},
		"1.35%":      {1.35, true},
		`"7.18"`:     {7.18, true},
		"-":          {0, false},
		"NA":         {0, false},
		"abc":        {0, false},
		"Inf":        {0, false},
		"":           {0, false},
		"  -1.5  ":   {-1.5, true},
	}
	for in, want := range cases {
		v, ok := ParseNumber(in)
		assert.Equal(t, want.ok, ok, in)
		if want.ok {
			assert.InDelta(t, want.v, v, 1e-9, in)
		}
	}
}
