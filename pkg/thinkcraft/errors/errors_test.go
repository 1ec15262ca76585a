package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryString(t *testing.T) {
	tests := []struct {
		category Category
		expected string
	}{
		{CategoryTransient, "transient"},
		{CategoryPermanent, "permanent"},
		{CategoryClient, "client"},
		{Category(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.category.String(); got != tt.expected {
				t.Errorf("Category(%d).String() = %s, want %s", tt.category, got, tt.expected)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Category
	}{
		{"nil error", nil, CategoryPermanent},
		{"validation", &ValidationError{Field: "title", Message: "empty"}, CategoryClient},
		{"enum", &InvalidEnumValueError{Enum: "status", Value: "X"}, CategoryClient},
		{"state transition", &StateTransitionError{Aggregate: "report", From: "ARCHIVED", Action: "generate"}, CategoryClient},
		{"not found", &NotFoundError{Kind: "section", ID: "s1"}, CategoryClient},
		{"wrapped validation", fmt.Errorf("create: %w", &ValidationError{Message: "bad"}), CategoryClient},
		{"timeout", &TimeoutError{Operation: "handler", Duration: "1s"}, CategoryTransient},
		{"deadline", context.DeadlineExceeded, CategoryTransient},
		{"categorized", Transient(errors.New("redis down"), "invalidate"), CategoryTransient},
		{"unknown", errors.New("boom"), CategoryPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.err); got != tt.expected {
				t.Errorf("Categorize() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", &ValidationError{Field: "title", Message: "too long"}, http.StatusBadRequest},
		{"enum", &InvalidEnumValueError{Enum: "type", Value: "NOPE"}, http.StatusBadRequest},
		{"not found", &NotFoundError{Kind: "report", ID: "r1"}, http.StatusNotFound},
		{"state", &StateTransitionError{Aggregate: "report", From: "ARCHIVED", Action: "edit"}, http.StatusConflict},
		{"wrapped state", fmt.Errorf("use case: %w", &StateTransitionError{Action: "edit"}), http.StatusConflict},
		{"conflict", &ConflictError{Kind: "share", ID: "s1"}, http.StatusConflict},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	err := &ValidationError{Field: "title", Message: "must not be empty"}
	assert.Equal(t, "validation error on title: must not be empty", PublicMessage(err))
	assert.Equal(t, "internal error", PublicMessage(errors.New("sql: connection refused")))
	assert.Equal(t, "", PublicMessage(nil))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation error: empty", (&ValidationError{Message: "empty"}).Error())
	assert.Equal(t, `invalid status value "X" (allowed: A, B)`,
		(&InvalidEnumValueError{Enum: "status", Value: "X", Allowed: []string{"A", "B"}}).Error())
	assert.Equal(t, "report r1: cannot generate from status ARCHIVED: terminal",
		(&StateTransitionError{Aggregate: "report", ID: "r1", From: "ARCHIVED", Action: "generate", Reason: "terminal"}).Error())
	assert.Equal(t, "section not found: s1", (&NotFoundError{Kind: "section", ID: "s1"}).Error())

	inv := Invalid("fontSize", "must be between %d and %d", 8, 24)
	assert.Equal(t, "fontSize", inv.Field)
	assert.Equal(t, "must be between 8 and 24", inv.Message)
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		cfg := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, BackoffFactor: 2}
		result := WithRetry(cfg, func() (string, error) {
			calls++
			if calls < 3 {
				return "", &TimeoutError{Operation: "op", Duration: "1ms"}
			}
			return "ok", nil
		})
		require.NoError(t, result.Err)
		assert.Equal(t, "ok", result.Value)
		assert.Equal(t, 3, result.Attempts)
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		calls := 0
		cfg := RetryConfig{MaxAttempts: 5, InitialBackoff: time.Millisecond}
		result := WithRetry(cfg, func() (int, error) {
			calls++
			return 0, errors.New("permanent")
		})
		require.Error(t, result.Err)
		assert.Equal(t, 1, calls)

		var catErr *CategorizedError
		require.True(t, errors.As(result.Err, &catErr))
		assert.Equal(t, CategoryPermanent, catErr.Category)
	})

	t.Run("no retry returns raw error", func(t *testing.T) {
		sentinel := errors.New("once")
		result := WithRetry(NoRetry, func() (int, error) { return 0, sentinel })
		assert.Same(t, sentinel, result.Err)
		assert.Equal(t, 1, result.Attempts)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		cfg := NewRetryConfig(
			WithMaxAttempts(2),
			WithInitialBackoff(time.Millisecond),
			WithMaxBackoff(2*time.Millisecond),
			WithRetryableFunc(func(error) bool { return true }),
		)
		result := WithRetry(cfg, func() (int, error) { return 0, errors.New("flaky") })
		require.Error(t, result.Err)
		assert.Equal(t, 2, result.Attempts)
		assert.Contains(t, result.Err.Error(), "max retries exceeded")
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		result := WithRetryContext(ctx, DefaultRetry, func(context.Context) (int, error) {
			t.Fatal("fn must not run")
			return 0, nil
		})
		require.Error(t, result.Err)
		assert.Equal(t, 0, result.Attempts)
	})
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, calculateBackoff(100*time.Millisecond, 0))

	for i := 0; i < 50; i++ {
		d := calculateBackoff(100*time.Millisecond, 0.1)
		assert.GreaterOrEqual(t, d, 90*time.Millisecond)
		assert.LessOrEqual(t, d, 110*time.Millisecond)
	}
}

func TestPredicates(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("outer: %w", err) }

	assert.True(t, IsValidation(wrap(Invalid("title", "required"))))
	assert.True(t, IsValidation(&InvalidEnumValueError{Enum: "status", Value: "X"}))
	assert.False(t, IsValidation(&NotFoundError{Kind: "report", ID: "1"}))

	assert.True(t, IsStateTransition(wrap(&StateTransitionError{Aggregate: "report"})))
	assert.False(t, IsStateTransition(Invalid("x", "y")))

	assert.True(t, IsNotFound(wrap(&NotFoundError{Kind: "share", ID: "1"})))
	assert.False(t, IsNotFound(errors.New("plain")))

	assert.True(t, IsConflict(wrap(&ConflictError{Kind: "report", ID: "1"})))
	assert.True(t, IsClientError(&ConflictError{Kind: "report", ID: "1"}))
	assert.False(t, IsConflict(&NotFoundError{Kind: "report", ID: "1"}))
}
