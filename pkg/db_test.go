package pkg

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type retryableErr struct{}

func (retryableErr) Error() string     { return "conn closed before send" }
func (retryableErr) SafeToRetry() bool { return true }

func TestIsUniqueViolationError(t *testing.T) {
	uniqueErr := fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505"})

	assert.True(t, IsUniqueViolationError(uniqueErr))
	assert.False(t, IsUniqueViolationError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolationError(errors.New("something else")))
	assert.False(t, IsUniqueViolationError(nil))
}

func TestIsTransientDBError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "connect error", err: fmt.Errorf("list workouts: %w", &pgconn.ConnectError{}), want: true},
		{name: "safe to retry", err: fmt.Errorf("get user: %w", retryableErr{}), want: true},
		{name: "network error", err: fmt.Errorf("query: %w", &net.OpError{Op: "read", Err: errors.New("connection reset")}), want: true},
		{name: "connection exception class", err: &pgconn.PgError{Code: "08006"}, want: true},
		{name: "admin shutdown", err: &pgconn.PgError{Code: "57P01"}, want: true},
		{name: "serialization failure", err: fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40001"}), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransientDBError(tc.err))
		})
	}
}
