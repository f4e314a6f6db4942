package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/wordcoverage/pkg/config"
	"github.com/japaniel/wordcoverage/pkg/coverage"
)

const corpusJSONL = `{"deck":"Reading","model":"Sentence","fields":{"Hanzi":"你好吗"},"reviews":[1709280000000,1709366400000]}
{"deck":"Reading","model":"Sentence","fields":{"Hanzi":"谢谢你"},"queue":1,"reviews":[1709200000000]}
{"deck":"Reading","model":"Cloze","fields":{"Hanzi":"朋友"},"reviews":[1709100000000]}
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	levels := filepath.Join(dir, "hsk.json")
	freq := filepath.Join(dir, "freq.txt")
	require.NoError(t, os.WriteFile(levels, []byte(`{"你好":1,"谢谢":1,"朋友":2}`), 0o644))
	require.NoError(t, os.WriteFile(freq, []byte("你\n你好\n谢谢\n朋友\n"), 0o644))

	return &config.Config{
		Database:  config.DatabaseConfig{Path: filepath.Join(dir, "corpus.db")},
		Wordlists: config.WordlistsConfig{LevelsPath: levels, FrequencyPath: freq, DownloadTimeout: 5 * time.Second},
		Snapshot:  config.SnapshotConfig{Path: filepath.Join(dir, "snapshots.db")},
		Stats:     config.StatsConfig{Timezone: "UTC", Workers: 2},
		Import:    config.ImportConfig{Workers: 2, BatchSize: 10},
		Article:   config.ArticleConfig{Deck: "Articles", Model: "Article", Field: "Text", Timeout: 5 * time.Second},
		SearchFields: map[string]map[string]string{
			"Reading":  {"Sentence": "Hanzi", "Cloze": ""},
			"Articles": {"Article": "Text"},
		},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func importCorpus(t *testing.T, a *App) {
	t.Helper()
	st, err := a.Import(context.Background(), strings.NewReader(corpusJSONL))
	require.NoError(t, err)
	require.Equal(t, 3, st.Notes)
}

func reportFor(t *testing.T, cov *Coverage, list string) *coverage.Report {
	t.Helper()
	for _, r := range cov.Reports {
		if r.List == list {
			return r
		}
	}
	t.Fatalf("no report for %s", list)
	return nil
}

func statFor(r *coverage.Report, name string) coverage.CategoryStat {
	for _, st := range r.Stats {
		if st.Name == name {
			return st
		}
	}
	return coverage.CategoryStat{}
}

func TestStats(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	importCorpus(t, a)

	cov, err := a.Stats(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, cov.RunID)
	assert.Equal(t, "UTC", cov.Timezone)
	// The Cloze note is disabled by its empty field name.
	assert.Equal(t, 2, cov.Entries)

	hsk := reportFor(t, cov, "hsk")
	hsk1 := statFor(hsk, "HSK 1")
	assert.Equal(t, 2, hsk1.Found)
	assert.Equal(t, 150, hsk1.Total)
	assert.Equal(t, 0, statFor(hsk, "HSK 2").Found)

	require.Len(t, hsk.Chart.Rows, 2)
	assert.Equal(t, "2024-02-29", hsk.Chart.Rows[0].Date)
	assert.Equal(t, 1, hsk.Chart.Rows[0].Values["col1"])
	assert.Equal(t, "2024-03-01", hsk.Chart.Rows[1].Date)
	assert.Equal(t, 2, hsk.Chart.Rows[1].Values["col1"])

	freq := reportFor(t, cov, "freq")
	assert.Equal(t, 3, statFor(freq, "★★★★★").Found, "你 谢谢 你好")
}

func TestStatsUsesSnapshotCacheAcrossRuns(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)
	importCorpus(t, a)

	first, err := a.Stats(context.Background())
	require.NoError(t, err)
	second, err := a.Stats(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Reports, second.Reports)
	_, err = os.Stat(cfg.Snapshot.Path)
	assert.NoError(t, err)
}

func TestStatsWithoutSnapshotCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Snapshot.Disabled = true
	a := newTestApp(t, cfg)
	importCorpus(t, a)

	cov, err := a.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, statFor(reportFor(t, cov, "hsk"), "HSK 1").Found)

	_, err = os.Stat(cfg.Snapshot.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestStatsDownloadsMissingList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("谢谢\n"))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Wordlists.FrequencyPath = filepath.Join(t.TempDir(), "downloaded.txt")
	cfg.Wordlists.FrequencyURL = srv.URL + "/freq.txt"
	a := newTestApp(t, cfg)
	importCorpus(t, a)

	cov, err := a.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, statFor(reportFor(t, cov, "freq"), "★★★★★").Found)
}

func TestStatsFailsWithoutReport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Wordlists.LevelsPath = filepath.Join(t.TempDir(), "missing.json")
	a := newTestApp(t, cfg)

	cov, err := a.Stats(context.Background())
	assert.Error(t, err)
	assert.Nil(t, cov)
}

func TestStatsCanceled(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Stats(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAddArticleFeedsStats(t *testing.T) {
	page, err := os.ReadFile("../article/testdata/ruby.html")
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}))
	defer srv.Close()

	a := newTestApp(t, testConfig(t))
	importCorpus(t, a)

	art, n, err := a.AddArticle(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "我们的第一堂中文课", art.Title)
	assert.Positive(t, n)

	cov, err := a.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, statFor(reportFor(t, cov, "hsk"), "HSK 2").Found, "朋友 appears in the article")

	fields, err := a.Fields(context.Background())
	require.NoError(t, err)
	var decks []string
	for _, f := range fields {
		decks = append(decks, f.DeckName)
	}
	assert.Contains(t, decks, "Articles")
	assert.Contains(t, decks, "Reading")
}

func TestWriteText(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	importCorpus(t, a)
	cov, err := a.Stats(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, cov))
	out := buf.String()
	assert.Contains(t, out, "Corpus entries:")
	assert.Contains(t, out, "HSK 1")
	assert.Contains(t, out, "2/150")
	assert.Contains(t, out, "☆☆☆☆☆")

	var zeroStars string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "☆☆☆☆☆") {
			zeroStars = line
		}
	}
	assert.True(t, strings.HasSuffix(strings.TrimSpace(zeroStars), "n/a"), "rating 0 has no percentage: %q", zeroStars)
}
