package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStates(t *testing.T) {
	states := DefaultStates()

	assert.Equal(t, 68, states.Len())

	abbr, ok := states.Abbreviation("TEXAS")
	assert.True(t, ok)
	assert.Equal(t, "TX", abbr)

	abbr, ok = states.Abbreviation("district of columbia")
	assert.True(t, ok)
	assert.Equal(t, "DC", abbr)

	abbr, ok = states.Abbreviation("LAKE MICHIGAN")
	assert.True(t, ok)
	assert.Equal(t, "LakeMichigan", abbr)

	abbr, ok = states.Abbreviation("ATLANTIS")
	assert.False(t, ok)
	assert.Equal(t, "ATLANTIS", abbr)

	name, ok := states.Name("ok")
	assert.True(t, ok)
	assert.Equal(t, "Oklahoma", name)
}

func TestParseStateTable(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		table, err := ParseStateTable(strings.NewReader("name,fips,abbr\nKansas, 20, KS\n"))
		require.NoError(t, err)
		abbr, ok := table.Abbreviation("KANSAS")
		assert.True(t, ok)
		assert.Equal(t, "KS", abbr)
	})

	t.Run("bad fips", func(t *testing.T) {
		_, err := ParseStateTable(strings.NewReader("name,fips,abbr\nKansas, xx, KS\n"))
		assert.ErrorIs(t, err, ErrFormat)
	})

	t.Run("wrong field count", func(t *testing.T) {
		_, err := ParseStateTable(strings.NewReader("name,fips,abbr\nKansas, 20\n"))
		assert.ErrorIs(t, err, ErrFormat)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseStateTable(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrFormat)
	})
}
