package utils

import (
	"testing"

	"post_market/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPageOffset(t *testing.T) {
	p := Pagination{}
	offset, limit := p.GetPageOffset()
	assert.Equal(t, 0, offset)
	assert.Equal(t, 10, limit)

	p = Pagination{Page: 3, Limit: 500}
	offset, limit = p.GetPageOffset()
	assert.Equal(t, 200, offset)
	assert.Equal(t, 100, limit)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 4, TotalPages(7, 2))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestTokenRoundTrip(t *testing.T) {
	config.GlobalConfig.JWT.Secret = "test-secret-test-secret-test-secret"
	config.GlobalConfig.JWT.Expire = 1

	token, expireAt, err := GenerateToken("user-1", "alice")
	require.NoError(t, err)
	require.NotNil(t, expireAt)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = ParseToken(token + "x")
	assert.Error(t, err)
}
