package db

import (
	"context"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/jackc/pgx/v5"

	"github.com/experina/storefront/internal/observability"
)

const (
	maxStatementLen    = 512
	slowQueryThreshold = 250 * time.Millisecond
)

type queryTraceKey struct{}

type queryTrace struct {
	span      *sentry.Span
	table     string
	operation string
	start     time.Time
}

// queryTracer records a db.query.duration meter per statement, tagged with
// the table it touches, and opens a db.query child span when the statement
// runs inside a traced request.
type queryTracer struct {
	slow time.Duration
}

func newQueryTracer() *queryTracer {
	return &queryTracer{slow: slowQueryThreshold}
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	statement := compactStatement(data.SQL)
	trace := &queryTrace{
		table:     statementTable(statement),
		operation: statementVerb(statement),
		start:     time.Now(),
	}

	if sentry.SpanFromContext(ctx) != nil {
		span := sentry.StartSpan(
			ctx,
			"db.query",
			sentry.WithDescription(statement),
			sentry.WithSpanOrigin(sentry.SpanOriginManual),
		)
		span.SetData("db.system", "postgresql")
		if trace.operation != "" {
			span.SetData("db.operation", trace.operation)
		}
		if trace.table != "" {
			span.SetData("db.collection.name", trace.table)
		}
		span.SetData("db.args", len(data.Args))
		trace.span = span
		ctx = span.Context()
	}

	return context.WithValue(ctx, queryTraceKey{}, trace)
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	trace, ok := ctx.Value(queryTraceKey{}).(*queryTrace)
	if !ok || trace == nil {
		return
	}

	attrs := []attribute.Builder{
		attribute.String("db.operation", trace.operation),
		attribute.String("db.collection.name", trace.table),
		attribute.Bool("db.error", data.Err != nil),
	}
	observability.ObserveSince(ctx, "db.query.duration", trace.start, attrs...)
	if t.slow > 0 && time.Since(trace.start) >= t.slow {
		observability.Count(ctx, "db.query.slow", attrs...)
	}

	if trace.span == nil {
		return
	}
	defer trace.span.Finish()

	if data.Err != nil {
		trace.span.Status = sentry.SpanStatusInternalError
		trace.span.SetData("db.error", data.Err.Error())
		return
	}
	trace.span.Status = sentry.SpanStatusOK
	if rows := data.CommandTag.RowsAffected(); rows >= 0 {
		trace.span.SetData("db.rows_affected", rows)
	}
}

// compactStatement collapses whitespace and caps the length for span names.
func compactStatement(sql string) string {
	compact := strings.Join(strings.Fields(sql), " ")
	if compact == "" {
		return "sql.query"
	}
	if len(compact) > maxStatementLen {
		return compact[:maxStatementLen]
	}
	return compact
}

func statementVerb(statement string) string {
	verb, _, _ := strings.Cut(statement, " ")
	if verb == "sql.query" {
		return ""
	}
	return strings.ToUpper(verb)
}

// statementTable returns the first table named after FROM, INTO or UPDATE.
// Statements opening with a CTE report the table of their outer query.
func statementTable(statement string) string {
	fields := strings.Fields(statement)
	for i := 0; i < len(fields)-1; i++ {
		switch strings.ToUpper(fields[i]) {
		case "FROM", "INTO", "UPDATE", "JOIN":
			name := strings.Trim(fields[i+1], `"(),;`)
			if name == "" || strings.EqualFold(name, "SELECT") {
				continue
			}
			if _, table, ok := strings.Cut(name, "."); ok {
				name = table
			}
			return strings.ToLower(name)
		}
	}
	return ""
}
