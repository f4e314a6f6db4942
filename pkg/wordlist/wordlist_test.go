package wordlist

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/japaniel/wordcoverage/pkg/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLevels_WithBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hsk.json")
	content := "\uFEFF" + `{"你好": 1, "谢谢": 2, "经济": 4}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	list, err := LoadLevels(path)
	require.NoError(t, err)

	assert.Equal(t, "hsk", list.Name)
	assert.ElementsMatch(t, []string{"你好", "谢谢", "经济"}, list.Words)
	cat, ok := list.Classifier.Classify("经济")
	assert.True(t, ok)
	assert.Equal(t, classify.Category(4), cat)
}

func TestParseLevels_RejectsOutOfRangeLevel(t *testing.T) {
	_, err := ParseLevels([]byte(`{"你好": 7}`))
	assert.Error(t, err)
}

func TestParseLevels_RejectsMalformedJSON(t *testing.T) {
	_, err := ParseLevels([]byte(`["你好"]`))
	assert.Error(t, err)
}

func TestParseFrequency_RanksAreLineNumbers(t *testing.T) {
	input := "\uFEFF的\n一\n\n是\n一\n"

	list, err := ParseFrequency(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"的", "一", "是"}, list.Words)
	fc := list.Classifier

	// 是 sits on line 3 because the blank line keeps its slot.
	cat, ok := fc.Classify("是")
	require.True(t, ok)
	assert.Equal(t, classify.StarRating(3), cat)

	_, ok = fc.Classify("")
	assert.False(t, ok)
}

func TestParseFrequency_RepeatedWordTakesLastRank(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("好\n")
	for i := 1; i < 1600; i++ {
		sb.WriteString("w" + strconv.Itoa(i) + "\n")
	}
	sb.WriteString("好\n")

	list, err := ParseFrequency(strings.NewReader(sb.String()))
	require.NoError(t, err)

	assert.Len(t, list.Words, 1600, "the repeated word is listed once")
	assert.Equal(t, "好", list.Words[0])
	cat, ok := list.Classifier.Classify("好")
	require.True(t, ok)
	assert.Equal(t, classify.Category(4), cat, "rank 1600 rates four stars")
}

func TestParseFrequency_StarBoundaries(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 1502; i++ {
		sb.WriteString("w" + strconv.Itoa(i) + "\n")
	}

	list, err := ParseFrequency(strings.NewReader(sb.String()))
	require.NoError(t, err)

	cat, _ := list.Classifier.Classify("w1500")
	assert.Equal(t, classify.Category(5), cat)
	cat, _ = list.Classifier.Classify("w1501")
	assert.Equal(t, classify.Category(4), cat)
}

func TestDigest_IndependentOfOrder(t *testing.T) {
	a := &List{Name: "hsk", Words: []string{"a", "b"}}
	b := &List{Name: "hsk", Words: []string{"b", "a"}}
	c := &List{Name: "freq", Words: []string{"a", "b"}}

	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
}
