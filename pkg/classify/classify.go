// Package classify maps vocabulary words to the category they are counted
// under: a proficiency level for the leveled list, or a star rating derived
// from frequency rank for the frequency list.
package classify

import (
	"strconv"
	"strings"
)

// Category is a level (1..6) or a star rating (0..5), depending on the list.
type Category int

// Classifier looks up the category of a word from its own target list.
type Classifier interface {
	// Classify returns the word's category; ok is false if the word is not in the list.
	Classify(word string) (c Category, ok bool)
	// Categories lists every category the classifier can produce, in display order.
	Categories() []Category
	// ColumnName is the human-readable label for a category.
	ColumnName(c Category) string
	// Size is the total vocabulary behind a category, used for percentages.
	// ok is false when a percentage makes no sense for that category.
	Size(c Category) (n int, ok bool)
}

const (
	MinLevel = 1
	MaxLevel = 6
	MaxStars = 5
)

var levelSizes = [MaxLevel]int{150, 150, 300, 600, 1300, 2500}

// LevelSize returns the number of words defined for an HSK level, or 0 if
// the level is out of range.
func LevelSize(level int) int {
	if level < MinLevel || level > MaxLevel {
		return 0
	}
	return levelSizes[level-1]
}

// starSizes is indexed by star count; index 0 has no meaningful total.
var starSizes = [MaxStars + 1]int{-1, 30000, 15000, 10000, 3500, 1500}

// StarSize returns how many words exist at a star rating. Rating 0 covers
// everything past the ranked range and reports ok=false.
func StarSize(stars int) (int, bool) {
	if stars <= 0 || stars > MaxStars {
		return 0, false
	}
	return starSizes[stars], true
}

// StarRating converts a 0-based frequency rank into a 0..5 star rating.
func StarRating(rank int) Category {
	switch {
	case rank <= 1500:
		return 5
	case rank <= 5000:
		return 4
	case rank <= 15000:
		return 3
	case rank <= 30000:
		return 2
	case rank <= 60000:
		return 1
	default:
		return 0
	}
}

// LevelClassifier classifies words by a word -> level table.
type LevelClassifier struct {
	levels map[string]int
}

// NewLevelClassifier wraps a word -> level table. The map is not copied and
// must not be modified afterwards.
func NewLevelClassifier(levels map[string]int) *LevelClassifier {
	return &LevelClassifier{levels: levels}
}

func (c *LevelClassifier) Classify(word string) (Category, bool) {
	lvl, ok := c.levels[word]
	return Category(lvl), ok
}

func (c *LevelClassifier) Categories() []Category {
	out := make([]Category, 0, MaxLevel)
	for l := MinLevel; l <= MaxLevel; l++ {
		out = append(out, Category(l))
	}
	return out
}

func (c *LevelClassifier) ColumnName(cat Category) string {
	return "HSK " + strconv.Itoa(int(cat))
}

func (c *LevelClassifier) Size(cat Category) (int, bool) {
	n := LevelSize(int(cat))
	return n, n > 0
}

// FrequencyClassifier classifies words by their rank in a frequency list.
type FrequencyClassifier struct {
	ranks map[string]int
}

// NewFrequencyClassifier wraps a word -> 0-based rank table.
func NewFrequencyClassifier(ranks map[string]int) *FrequencyClassifier {
	return &FrequencyClassifier{ranks: ranks}
}

func (c *FrequencyClassifier) Classify(word string) (Category, bool) {
	rank, ok := c.ranks[word]
	if !ok {
		return 0, false
	}
	return StarRating(rank), true
}

// Categories runs from most to least frequent, matching chart stacking order.
func (c *FrequencyClassifier) Categories() []Category {
	out := make([]Category, 0, MaxStars+1)
	for s := MaxStars; s >= 0; s-- {
		out = append(out, Category(s))
	}
	return out
}

// ColumnName renders a rating as filled and hollow stars, e.g. ★★★☆☆.
func (c *FrequencyClassifier) ColumnName(cat Category) string {
	n := int(cat)
	if n < 0 {
		n = 0
	}
	if n > MaxStars {
		n = MaxStars
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", MaxStars-n)
}

func (c *FrequencyClassifier) Size(cat Category) (int, bool) {
	return StarSize(int(cat))
}
