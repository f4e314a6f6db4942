// Package ingest imports corpus notes from JSON Lines into the corpus store.
// Lines are decoded and validated on a worker pool; writes go through a
// single BatchWriter in input order.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/japaniel/wordcoverage/pkg/db"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 4 * 1024 * 1024

// guidNamespace seeds the deterministic GUIDs of records that carry none.
var guidNamespace = uuid.MustParse("3b0c6e52-8f3d-4c1e-9a57-2d6f0b9e4a11")

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Record is one line of a corpus import:
//
//	{"deck":"Reading","model":"Sentence","fields":{"Hanzi":"你好吗"},"reviews":[1709280000000]}
//
// Reviews are epoch milliseconds. Queue defaults to review when the record
// has reviews and to new otherwise.
type Record struct {
	GUID    string            `json:"guid,omitempty"`
	Deck    string            `json:"deck"`
	Model   string            `json:"model"`
	Fields  map[string]string `json:"fields"`
	Queue   *int              `json:"queue,omitempty"`
	Reviews []int64           `json:"reviews,omitempty"`
	Source  string            `json:"source,omitempty"`
}

// NoteGUID derives a stable GUID from a note's model and fields, so
// re-importing the same record updates the existing note.
func NoteGUID(model string, fields map[string]string) string {
	var b strings.Builder
	b.WriteString(model)
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		b.WriteByte(0x1f)
		b.WriteString(k)
		b.WriteByte(0x1e)
		b.WriteString(fields[k])
	}
	return uuid.NewSHA1(guidNamespace, []byte(b.String())).String()
}

// Validate normalizes r in place and reports the first problem found.
func (r *Record) Validate() error {
	r.Deck = strings.TrimSpace(r.Deck)
	r.Model = strings.TrimSpace(r.Model)
	if r.Deck == "" {
		return errors.New("deck is required")
	}
	if r.Model == "" {
		return errors.New("model is required")
	}
	if len(r.Fields) == 0 {
		return errors.New("fields are required")
	}
	for _, ts := range r.Reviews {
		if ts <= 0 {
			return fmt.Errorf("review timestamp %d is not positive", ts)
		}
	}
	if r.GUID == "" {
		r.GUID = NoteGUID(r.Model, r.Fields)
	}
	if r.Queue == nil {
		q := db.QueueNew
		if len(r.Reviews) > 0 {
			q = db.QueueReview
		}
		r.Queue = &q
	}
	return nil
}

// Stats summarizes an import.
type Stats struct {
	Lines   int
	Notes   int
	Reviews int
	Skipped int
}

// Importer handles the import of JSONL records into the database.
type Importer struct {
	DB        *sql.DB
	BatchSize int
	// Logger receives per-line warnings for skipped records. nil means no logging.
	Logger *slog.Logger
	// OnProgress is called periodically with the number of records handed to the writer.
	OnProgress func(done int)

	// Concurrency settings
	Workers int

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewImporter creates a new Importer.
func NewImporter(conn *sql.DB) *Importer {
	return &Importer{
		DB:        conn,
		BatchSize: 50,
		Workers:   4,
	}
}

// decoded holds the result of decoding one line before it is written.
type decoded struct {
	Index  int
	Line   int
	Record Record
	Err    error
}

func decodeLine(index, line int, data []byte) decoded {
	d := decoded{Index: index, Line: line}
	if err := json.Unmarshal(data, &d.Record); err != nil {
		d.Err = err
		return d
	}
	d.Err = d.Record.Validate()
	return d
}

// Import reads JSONL records from r and writes them to the database. Records
// that fail to decode or validate are skipped and counted; write failures
// abort the import.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Stats, error) {
	var st Stats
	batchSize := im.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	var wp WorkerPoolInterface
	if im.PoolFactory != nil {
		wp = im.PoolFactory(im.Workers, im.Workers*2)
	} else {
		wp = NewWorkerPool(im.Workers, im.Workers*2)
	}
	resultCh := make(chan decoded, im.Workers*2+1)
	doneCh := make(chan error, 1)

	var reviews atomic.Int64
	bw := NewBatchWriter(im.DB, batchSize, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wp.Start(ctx)

	// Consumer: restore input order, then hand records to the writer.
	go func() {
		defer close(doneCh)
		pending := make(map[int]decoded)
		next := 0
		for res := range resultCh {
			pending[res.Index] = res
			for {
				item, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++

				if item.Err != nil {
					st.Skipped++
					if im.Logger != nil {
						im.Logger.Warn("skipping record", "line", item.Line, "error", item.Err)
					}
					continue
				}
				if err := bw.Submit(im.write(item.Record, &reviews)); err != nil {
					cancel()
					doneCh <- err
					return
				}
				if im.OnProgress != nil && next%batchSize == 0 {
					im.OnProgress(next)
				}
			}
		}
		if err := ctx.Err(); err != nil {
			doneCh <- err
			return
		}
		if im.OnProgress != nil {
			im.OnProgress(next)
		}
		doneCh <- nil
	}()

	// Producer: one decode job per non-blank line.
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	var submitErr error
	line := 0
Loop:
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		data := bytes.Clone(text)
		idx, ln := st.Lines, line
		st.Lines++

		job := func(ctx context.Context) error {
			res := decodeLine(idx, ln, data)
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}

		if err := wp.SubmitCtx(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrPoolClosed) {
				break Loop
			}
			submitErr = fmt.Errorf("submit line %d: %w", ln, err)
			cancel()
			break Loop
		}
	}
	scanErr := sc.Err()

	// All decode jobs are done once the pool is closed; nothing else sends.
	wp.Close()
	close(resultCh)
	consumerErr := <-doneCh
	writeErr := bw.Close()

	st.Notes = int(bw.Committed())
	st.Reviews = int(reviews.Load())

	switch {
	case submitErr != nil:
		return st, submitErr
	case writeErr != nil:
		return st, writeErr
	case consumerErr != nil:
		return st, consumerErr
	case scanErr != nil:
		return st, fmt.Errorf("read import: %w", scanErr)
	}
	return st, nil
}

// write persists one record: its deck and model, the note, a card and its reviews.
func (im *Importer) write(rec Record, reviews *atomic.Int64) WriteFunc {
	return func(ctx context.Context, tx *sql.Tx) error {
		mid, err := db.CreateOrGetModel(ctx, tx, rec.Model)
		if err != nil {
			return err
		}
		did, err := db.CreateOrGetDeck(ctx, tx, rec.Deck)
		if err != nil {
			return err
		}
		nid, err := db.UpsertNote(ctx, tx, db.Note{GUID: rec.GUID, ModelID: mid, Fields: rec.Fields, Source: rec.Source})
		if err != nil {
			return fmt.Errorf("note %s: %w", rec.GUID, err)
		}
		cid, err := db.UpsertCard(ctx, tx, nid, did, 0, *rec.Queue)
		if err != nil {
			return err
		}
		for _, ts := range rec.Reviews {
			added, err := db.InsertReview(ctx, tx, cid, ts)
			if err != nil {
				return err
			}
			if added {
				reviews.Add(1)
			}
		}
		return nil
	}
}

// ImportRecords writes already built records through the same pipeline as Import.
func (im *Importer) ImportRecords(ctx context.Context, recs []Record) (Stats, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range recs {
		if err := enc.Encode(&recs[i]); err != nil {
			return Stats{}, fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return im.Import(ctx, &buf)
}
