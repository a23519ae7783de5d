// Package bench measures retrieval and answer quality against a set of
// questions with known gold patterns.
package bench

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"contractqa/internal/logger"
	"contractqa/internal/service"
)

// DefaultK is used for cases that do not set k.
const DefaultK = 8

// Case is one benchmark question.
type Case struct {
	Q         string `json:"q"`
	GoldRegex string `json:"gold_regex"`
	K         int    `json:"k,omitempty"`
}

// Asker answers one question with k contexts.
type Asker func(ctx context.Context, question string, k int) (service.Result, error)

// Row is the outcome of one case.
type Row struct {
	Q         string
	OK        bool
	LatencyMS float64
	HitAtK    int
	P1        int
	EM        int
	Err       string
}

// Report holds one row per case, in case order.
type Report struct {
	Rows []Row
}

// Summary aggregates a report over its successful rows.
type Summary struct {
	Queries      int      `json:"queries"`
	OK           int      `json:"ok"`
	AvgLatencyMS *float64 `json:"avg_latency_ms,omitempty"`
	HitAtK       *float64 `json:"Hit@k,omitempty"`
	P1           *float64 `json:"P@1,omitempty"`
	ExactMatch   *float64 `json:"ExactMatch,omitempty"`
}

// Load reads a JSON array of cases from path.
func Load(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cases []Case
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse bench %s: %w", path, err)
	}
	for i := range cases {
		if cases[i].Q == "" || cases[i].GoldRegex == "" {
			return nil, fmt.Errorf("bench item %d missing q or gold_regex", i)
		}
		if _, err := compile(cases[i].GoldRegex); err != nil {
			return nil, fmt.Errorf("bench item %d: %w", i, err)
		}
		if cases[i].K <= 0 {
			cases[i].K = DefaultK
		}
	}
	return cases, nil
}

// Run asks every case with at most workers questions in flight. A failing
// question is recorded in its row; only context cancellation aborts the run.
func Run(ctx context.Context, ask Asker, cases []Case, workers int) (Report, error) {
	if workers <= 0 {
		workers = 1
	}
	rows := make([]Row, len(cases))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	done := 0
	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows[i] = runCase(ctx, ask, c)
			mu.Lock()
			done++
			logger.Debug("bench %d/%d: %q", done, len(cases), c.Q)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return Report{Rows: rows}, nil
}

func runCase(ctx context.Context, ask Asker, c Case) Row {
	row := Row{Q: c.Q}
	gold, err := compile(c.GoldRegex)
	if err != nil {
		row.Err = err.Error()
		return row
	}
	start := time.Now()
	res, err := ask(ctx, c.Q, c.K)
	if err != nil {
		row.Err = err.Error()
		return row
	}
	row.OK = true
	row.LatencyMS = res.Timings.TotalMS
	if row.LatencyMS == 0 {
		row.LatencyMS = float64(time.Since(start).Microseconds()) / 1000
	}
	for i, ctxt := range res.Contexts {
		if gold.MatchString(ctxt.Text) {
			row.HitAtK = 1
			if i == 0 {
				row.P1 = 1
			}
			break
		}
	}
	if gold.MatchString(res.Answer.Text) {
		row.EM = 1
	}
	return row
}

// Gold patterns match case-insensitively with dot matching newlines.
func compile(expr string) (*regexp.Regexp, error) {
	return regexp.Compile("(?is)" + expr)
}

// WriteCSV writes the report with a header row.
func (r Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"q", "status", "latency_ms", "hit_at_k", "p1", "em", "err"}); err != nil {
		return err
	}
	for _, row := range r.Rows {
		rec := []string{row.Q, "ERR", "", "", "", "", row.Err}
		if row.OK {
			rec = []string{
				row.Q, "OK",
				strconv.FormatFloat(row.LatencyMS, 'f', 2, 64),
				strconv.Itoa(row.HitAtK), strconv.Itoa(row.P1), strconv.Itoa(row.EM),
				"",
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary computes averages over successful rows. Metrics are omitted when no
// row succeeded.
func (r Report) Summary() Summary {
	s := Summary{Queries: len(r.Rows)}
	var lat, hit, p1, em float64
	for _, row := range r.Rows {
		if !row.OK {
			continue
		}
		s.OK++
		lat += row.LatencyMS
		hit += float64(row.HitAtK)
		p1 += float64(row.P1)
		em += float64(row.EM)
	}
	if s.OK == 0 {
		return s
	}
	n := float64(s.OK)
	s.AvgLatencyMS = ptr(round(lat/n, 2))
	s.HitAtK = ptr(round(hit/n, 3))
	s.P1 = ptr(round(p1/n, 3))
	s.ExactMatch = ptr(round(em/n, 3))
	return s
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func ptr(v float64) *float64 { return &v }
