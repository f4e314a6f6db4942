package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStarRating_Thresholds(t *testing.T) {
	tests := []struct {
		rank int
		want Category
	}{
		{0, 5},
		{1500, 5},
		{1501, 4},
		{5000, 4},
		{5001, 3},
		{15000, 3},
		{15001, 2},
		{30000, 2},
		{30001, 1},
		{60000, 1},
		{60001, 0},
		{1 << 20, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StarRating(tt.rank), "rank %d", tt.rank)
	}
}

func TestFrequencyClassifier(t *testing.T) {
	ranks := make(map[string]int, 60000)
	ranks["common"] = 1500
	ranks["less"] = 1501
	ranks["rare"] = 60001
	c := NewFrequencyClassifier(ranks)

	got, ok := c.Classify("common")
	assert.True(t, ok)
	assert.Equal(t, Category(5), got)

	got, _ = c.Classify("less")
	assert.Equal(t, Category(4), got)

	got, _ = c.Classify("rare")
	assert.Equal(t, Category(0), got)

	_, ok = c.Classify("missing")
	assert.False(t, ok)

	assert.Equal(t, []Category{5, 4, 3, 2, 1, 0}, c.Categories())
}

func TestLevelClassifier(t *testing.T) {
	c := NewLevelClassifier(map[string]int{"你好": 1, "谢谢": 2})

	got, ok := c.Classify("谢谢")
	assert.True(t, ok)
	assert.Equal(t, Category(2), got)

	_, ok = c.Classify("再见")
	assert.False(t, ok)

	assert.Equal(t, []Category{1, 2, 3, 4, 5, 6}, c.Categories())
	assert.Equal(t, "HSK 3", c.ColumnName(3))
}

func TestSizes(t *testing.T) {
	assert.Equal(t, 150, LevelSize(1))
	assert.Equal(t, 2500, LevelSize(6))
	assert.Equal(t, 0, LevelSize(7))

	n, ok := StarSize(5)
	assert.True(t, ok)
	assert.Equal(t, 1500, n)

	n, ok = StarSize(1)
	assert.True(t, ok)
	assert.Equal(t, 30000, n)

	_, ok = StarSize(0)
	assert.False(t, ok, "rating 0 has no normalization")
}

func TestFrequencyColumnName(t *testing.T) {
	c := NewFrequencyClassifier(nil)
	assert.Equal(t, "★★★☆☆", c.ColumnName(3))
	assert.Equal(t, "☆☆☆☆☆", c.ColumnName(0))
	assert.Equal(t, "★★★★★", c.ColumnName(5))
}
