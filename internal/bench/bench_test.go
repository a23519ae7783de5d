package bench

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractqa/internal/domain"
	"contractqa/internal/service"
)

func writeBench(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cases, err := Load(writeBench(t, `[{"q":"governing law?","gold_regex":"California"},{"q":"notice","gold_regex":"thirty","k":3}]`))
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, DefaultK, cases[0].K)
	assert.Equal(t, 3, cases[1].K)

	tests := map[string]string{
		"missing gold": `[{"q":"x"}]`,
		"missing q":    `[{"gold_regex":"x"}]`,
		"bad regex":    `[{"q":"x","gold_regex":"("}]`,
		"not json":     `{`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeBench(t, body))
			assert.Error(t, err)
		})
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func fakeAsker(calls *atomic.Int32) Asker {
	return func(_ context.Context, q string, k int) (service.Result, error) {
		calls.Add(1)
		switch q {
		case "law":
			return service.Result{
				Answer:   domain.Answer{Text: "governed by the laws of California"},
				Contexts: []service.Context{{ID: "a", Text: "The laws of california apply."}},
				Timings:  service.Timings{TotalMS: 4},
			}, nil
		case "second":
			return service.Result{
				Answer:   domain.Answer{Text: "no idea"},
				Contexts: []service.Context{{ID: "a", Text: "other"}, {ID: "b", Text: "thirty\ndays notice"}},
				Timings:  service.Timings{TotalMS: 2},
			}, nil
		default:
			return service.Result{}, errors.New("boom")
		}
	}
}

func TestRun(t *testing.T) {
	var calls atomic.Int32
	cases := []Case{
		{Q: "law", GoldRegex: "CALIFORNIA", K: 5},
		{Q: "second", GoldRegex: "thirty.days", K: 5},
		{Q: "broken", GoldRegex: "x", K: 5},
	}
	rep, err := Run(context.Background(), fakeAsker(&calls), cases, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, rep.Rows, 3)

	assert.Equal(t, Row{Q: "law", OK: true, LatencyMS: 4, HitAtK: 1, P1: 1, EM: 1}, rep.Rows[0])
	assert.Equal(t, Row{Q: "second", OK: true, LatencyMS: 2, HitAtK: 1}, rep.Rows[1])
	assert.Equal(t, Row{Q: "broken", Err: "boom"}, rep.Rows[2])

	s := rep.Summary()
	assert.Equal(t, 3, s.Queries)
	assert.Equal(t, 2, s.OK)
	assert.Equal(t, 3.0, *s.AvgLatencyMS)
	assert.Equal(t, 1.0, *s.HitAtK)
	assert.Equal(t, 0.5, *s.P1)
	assert.Equal(t, 0.5, *s.ExactMatch)
}

func TestRun_Cancelled(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, fakeAsker(&calls), []Case{{Q: "law", GoldRegex: "x"}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteCSV(t *testing.T) {
	rep := Report{Rows: []Row{
		{Q: "law", OK: true, LatencyMS: 1.5, HitAtK: 1, P1: 0, EM: 1},
		{Q: "bad, question", Err: "boom"},
	}}
	var buf bytes.Buffer
	require.NoError(t, rep.WriteCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"q,status,latency_ms,hit_at_k,p1,em,err",
		"law,OK,1.50,1,0,1,",
		`"bad, question",ERR,,,,,boom`,
	}, lines)
}

func TestSummary_NoSuccess(t *testing.T) {
	s := Report{Rows: []Row{{Q: "x", Err: "boom"}}}.Summary()
	assert.Equal(t, Summary{Queries: 1}, s)
}
