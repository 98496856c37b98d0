package rxscan

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stephenafamo/rxscan/logger"
)

type NoopQueryer struct{}

func (n NoopQueryer) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	return nil, nil
}

type debugEntry struct {
	Query   string `json:"query"`
	Args    []any  `json:"args"`
	Message string `json:"message"`
}

func TestDebugQueryerDefaultWriter(t *testing.T) {
	saved := logger.Log
	defer func() { logger.Log = saved }()

	dest := &bytes.Buffer{}
	logger.SetLogOutput(dest)

	_, err := Debug(NoopQueryer{}, nil).QueryContext(context.Background(), "A QUERY")
	if err != nil {
		t.Fatal("error running QueryContext")
	}

	var entry debugEntry
	if err := json.Unmarshal(dest.Bytes(), &entry); err != nil {
		t.Fatalf("debug output is not json: %v\n%s", err, dest.String())
	}

	if entry.Query != "A QUERY" {
		t.Fatalf("wrong debug sql.\nExpected: %s\nGot: %s", "A QUERY", entry.Query)
	}
}

func TestDebugQueryer(t *testing.T) {
	dest := &bytes.Buffer{}
	exec := Debug(NoopQueryer{}, dest)

	sql := "A QUERY"
	args := []any{"arg1", "arg2", "arg3"}

	_, err := exec.QueryContext(context.Background(), sql, args...)
	if err != nil {
		t.Fatal("error running QueryContext")
	}

	var entry debugEntry
	if err := json.Unmarshal(dest.Bytes(), &entry); err != nil {
		t.Fatalf("debug output is not json: %v\n%s", err, dest.String())
	}

	expected := debugEntry{Query: sql, Args: args, Message: "query"}
	if diff := cmp.Diff(expected, entry); diff != "" {
		t.Fatalf("diff: %s", diff)
	}
}

func TestDebugQueryerSequence(t *testing.T) {
	dest := &bytes.Buffer{}
	q := &fakeQueryer{rows: newFakeRows([]string{"v"}, []any{"a"})}

	all, err := Collect(Query[string](context.Background(), Debug(q, dest), SingleColumnMapper[string], "SELECT v"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"a"}, all); diff != "" {
		t.Fatalf("diff: %s", diff)
	}

	if diff := cmp.Diff([]string{"SELECT v"}, q.queries); diff != "" {
		t.Fatalf("diff: %s", diff)
	}
}
