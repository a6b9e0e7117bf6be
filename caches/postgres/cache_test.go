//go:build !integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dgduncan/sard-edge/caches"
)

func TestNewNilDatabase(t *testing.T) {
	c, err := New(context.Background(), nil, &Config{DeleteExpiredItems: true})
	assert.ErrorIs(t, err, caches.ErrValidation)
	assert.Nil(t, c)
}

func TestQueriesEmbedded(t *testing.T) {
	for name, q := range map[string]string{
		"create_table":   queryCreateTable,
		"delete_expired": queryDeleteExpired,
		"fetch_by_id":    queryFetchByID,
		"insert_item":    queryInsertItem,
	} {
		assert.NotEmpty(t, q, name)
		assert.Contains(t, q, "rendered_pages", name)
	}
}
