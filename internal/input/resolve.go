// Package input obtains raw EXPLAIN reports from files, stdin, an
// interactive paste or a live database.
package input

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

type Kind string

const (
	KindPlan    Kind = "plan"
	KindSQL     Kind = "sql"
	KindUnknown Kind = "unknown"
)

// DefaultMaxBytes bounds a single report when no limit is configured.
const DefaultMaxBytes int64 = 16 << 20

var stdin io.Reader = os.Stdin

// Report is raw plan text ready for the parser, plus the query that produced
// it when known.
type Report struct {
	Source string
	Query  string
}

type Options struct {
	DBConn   string
	MaxBytes int64
	JSON     bool
	// Label prefixes prompts and errors, e.g. "old " when comparing.
	Label string
}

// Resolve reads input ("" for an interactive paste, "-" for stdin, anything
// else is a path) and, when it holds SQL, runs EXPLAIN against opts.DBConn.
func Resolve(ctx context.Context, input string, opts Options) (Report, error) {
	data, err := readInput(input, opts.Label, opts.MaxBytes)
	if err != nil {
		return Report{}, err
	}

	switch Detect(data, input) {
	case KindPlan:
		return Report{Source: string(data)}, nil
	case KindSQL:
		query := strings.TrimSpace(string(data))
		if strings.HasPrefix(strings.ToUpper(query), "EXPLAIN") {
			return Report{}, fmt.Errorf("input should not include EXPLAIN prefix - provide the raw query only")
		}
		if opts.DBConn == "" {
			return Report{}, fmt.Errorf("SQL input requires a database connection (--db or --profile)")
		}
		source, err := Execute(ctx, opts.DBConn, query, opts.JSON)
		if err != nil {
			return Report{}, err
		}
		return Report{Source: source, Query: query}, nil
	default:
		return Report{}, fmt.Errorf("unable to detect %sinput type: expected an EXPLAIN plan, SQL query, or .json/.txt/.sql file", opts.Label)
	}
}

func readInput(input, label string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	var (
		data []byte
		err  error
	)
	switch input {
	case "":
		data, err = readInteractive(label, maxBytes)
	case "-":
		data, err = readLimited(stdin, maxBytes)
	default:
		f, openErr := os.Open(input)
		if openErr != nil {
			return nil, openErr
		}
		defer f.Close()
		data, err = readLimited(f, maxBytes)
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("%sinput is empty", label)
	}
	return data, nil
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("input exceeds %d bytes; raise max_input_bytes in the config to allow it", maxBytes)
	}
	return data, nil
}

func readInteractive(label string, maxBytes int64) ([]byte, error) {
	fmt.Printf("Paste %sEXPLAIN output (text or FORMAT JSON) or SQL query", label)
	if runtime.GOOS == "windows" {
		fmt.Print(" (Ctrl+Z, Enter to submit)\n")
	} else {
		fmt.Print(" (Ctrl+D to submit)\n")
	}

	data, err := readLimited(stdin, maxBytes)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))

	if (strings.HasPrefix(trimmed, "[") ||
		strings.HasPrefix(trimmed, "{")) &&
		!jsoniter.Valid(data) &&
		!jsoniter.Valid(bytes.ReplaceAll(data, []byte(`""`), []byte(`"`))) {
		return nil, fmt.Errorf("input appears truncated; for large inputs use: plantree parse <file>")
	}

	return data, nil
}

// Detect classifies data by file extension first, then by content.
func Detect(data []byte, filename string) Kind {
	switch {
	case strings.HasSuffix(filename, ".json"), strings.HasSuffix(filename, ".txt"):
		return KindPlan
	case strings.HasSuffix(filename, ".sql"):
		return KindSQL
	}

	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return KindPlan
	}

	for _, marker := range []string{"(cost=", "(actual", "(never executed)", "QUERY PLAN", "operator_type"} {
		if strings.Contains(trimmed, marker) {
			return KindPlan
		}
	}

	upper := strings.ToUpper(trimmed)
	for _, kw := range []string{"SELECT", "WITH", "INSERT", "UPDATE", "DELETE", "EXPLAIN", "VALUES", "TABLE"} {
		if strings.HasPrefix(upper, kw) {
			return KindSQL
		}
	}

	return KindUnknown
}
