package repository

import (
	"context"
	"errors"

	"github.com/PercyTuncar/ravehub-website-sub003/backend-store/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const pgUniqueViolationCode = "23505"

// nullString returns nil if string is empty, otherwise returns pointer to string
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode
}

// fail records err on the span and wraps it as a transient backend failure.
// A cancelled request is passed through unwrapped.
func fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, context.Canceled) {
		return err
	}
	return domain.Transient(op, err)
}

// validUUIDs drops ids that could never match a UUID column
func validUUIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
