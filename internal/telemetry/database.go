package telemetry

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OpenDB opens a traced database handle and exports its pool statistics
// through the global meter provider, so call it after InitMeterProvider.
func OpenDB(driverName, dsn string) (*sql.DB, error) {
	opts := []otelsql.Option{
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			DisableErrSkip:       true,
			OmitConnResetSession: true,
			OmitRows:             true,
			// A missing row is an expected lookup result, not a failed span.
			RecordError: func(err error) bool { return !errors.Is(err, sql.ErrNoRows) },
		}),
	}

	db, err := otelsql.Open(driverName, dsn, opts...)
	if err != nil {
		return nil, err
	}

	if _, err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(semconv.DBSystemPostgreSQL)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register db stats metrics: %w", err)
	}
	return db, nil
}
