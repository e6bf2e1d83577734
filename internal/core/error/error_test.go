package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapRedisNil(t *testing.T) {
	assert.Nil(t, WrapRedis(nil))

	e := WrapRedis(redis.Nil)
	require.NotNil(t, e)
	assert.Equal(t, http.StatusNotFound, e.Status)
	assert.Equal(t, RedisNotFoundMessage, e.Message)
	assert.True(t, errors.Is(e, redis.Nil))
}

func TestWrapRedisGenericFailure(t *testing.T) {
	cause := errors.New("connection refused")
	e := WrapRedis(cause)
	require.NotNil(t, e)
	assert.Equal(t, http.StatusBadGateway, e.Status)
	assert.Equal(t, RedisErrorMessage, e.Message)
	assert.True(t, errors.Is(e, cause))
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := New(cause, http.StatusInternalServerError, SystemErrorMessage)

	assert.Equal(t, "internal server error: boom", e.Error())
	assert.Equal(t, cause, errors.Unwrap(e))

	var target *Error
	require.True(t, errors.As(fmt.Errorf("outer: %w", e), &target))
	assert.Equal(t, http.StatusInternalServerError, target.Status)
}

func TestErrorWithoutCause(t *testing.T) {
	e := New(nil, http.StatusBadGateway, DecisionErrorMessage)
	assert.Equal(t, DecisionErrorMessage, e.Error())
	assert.Nil(t, errors.Unwrap(e))
}
