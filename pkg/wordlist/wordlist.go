// Package wordlist loads the target vocabulary lists: a leveled list
// (word -> HSK level) and a frequency list (one word per line, most frequent
// first).
package wordlist

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/japaniel/wordcoverage/pkg/classify"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// List is a loaded target list: its words and the classifier for them.
type List struct {
	Name       string
	Words      []string
	Classifier classify.Classifier
}

// Digest identifies the list contents, independent of load order.
func (l *List) Digest() string {
	sorted := slices.Clone(l.Words)
	slices.Sort(sorted)
	h := sha256.New()
	io.WriteString(h, l.Name)
	for _, w := range sorted {
		h.Write([]byte{0})
		io.WriteString(h, w)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LoadLevels reads a JSON object of word -> level, e.g. hsk.json.
// A leading UTF-8 BOM is tolerated.
func LoadLevels(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLevels(data)
}

// ParseLevels decodes a word -> level JSON object.
func ParseLevels(data []byte) (*List, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	var levels map[string]int
	if err := json.Unmarshal(data, &levels); err != nil {
		return nil, fmt.Errorf("parse level list: %w", err)
	}
	words := make([]string, 0, len(levels))
	for w, lvl := range levels {
		if lvl < classify.MinLevel || lvl > classify.MaxLevel {
			return nil, fmt.Errorf("parse level list: word %q has level %d", w, lvl)
		}
		words = append(words, w)
	}
	slices.Sort(words)
	return &List{
		Name:       "hsk",
		Words:      words,
		Classifier: classify.NewLevelClassifier(levels),
	}, nil
}

// LoadFrequency reads a frequency list, one word per line. A word's rank is
// its 0-based line number. Blank lines keep their slot but add no word; a
// repeated word takes the rank of its last line.
func LoadFrequency(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseFrequency(f)
}

// ParseFrequency reads a frequency list from r.
func ParseFrequency(r io.Reader) (*List, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	ranks := make(map[string]int)
	var words []string
	rank := 0
	for sc.Scan() {
		line := sc.Text()
		if rank == 0 {
			line = strings.TrimPrefix(line, string(utf8BOM))
		}
		word := strings.TrimSpace(line)
		if word != "" {
			if _, dup := ranks[word]; !dup {
				words = append(words, word)
			}
			ranks[word] = rank
		}
		rank++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read frequency list: %w", err)
	}
	return &List{
		Name:       "freq",
		Words:      words,
		Classifier: classify.NewFrequencyClassifier(ranks),
	}, nil
}
