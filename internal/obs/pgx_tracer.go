package obs

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type pgxSpanKey struct{}

// PGXTracer opens a client span per query. Spans are named after the
// "-- name: X" header of the generated queries when one is present.
type PGXTracer struct{}

func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	name, op := QueryName(data.SQL)
	ctx, span := otel.Tracer("menu.db").Start(ctx, "db "+name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
		attribute.Int("db.args", len(data.Args)),
	)
	return context.WithValue(ctx, pgxSpanKey{}, span)
}

func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, ok := ctx.Value(pgxSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	if data.Err != nil && !errors.Is(data.Err, pgx.ErrNoRows) {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, "query failed")
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
	span.End()
}

// QueryName returns the query's generated name (or its leading keyword) and
// the SQL verb.
func QueryName(sql string) (name, operation string) {
	rest := strings.TrimSpace(sql)
	if strings.HasPrefix(rest, "-- name:") {
		header, body, _ := strings.Cut(rest, "\n")
		if fields := strings.Fields(strings.TrimPrefix(header, "-- name:")); len(fields) > 0 {
			name = fields[0]
		}
		rest = strings.TrimSpace(body)
	}
	if fields := strings.Fields(rest); len(fields) > 0 {
		operation = strings.ToUpper(fields[0])
	}
	if name == "" {
		name = operation
	}
	if name == "" {
		name = "query"
	}
	return name, operation
}
