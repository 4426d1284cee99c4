package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real database only when TEST_DATABASE_URL is set.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, pool, err := ConnectPostgres(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	key := uuid.New().String()
	expiry := time.Now().Add(time.Hour)

	require.NoError(t, s.Revoke(ctx, key, expiry))
	require.NoError(t, s.Revoke(ctx, key, expiry))

	revoked, err := s.IsRevoked(ctx, key)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.IsRevoked(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.False(t, revoked)

	_, err = s.Prune(ctx, expiry.Add(time.Second))
	require.NoError(t, err)

	revoked, err = s.IsRevoked(ctx, key)
	require.NoError(t, err)
	assert.False(t, revoked)
}

type boolRow struct{ value bool }

func (r boolRow) Scan(dest ...interface{}) error {
	*(dest[0].(*bool)) = r.value
	return nil
}

// recordingDB captures the arguments of every query.
type recordingDB struct {
	queryArgs [][]interface{}
	execArgs  [][]interface{}
}

func (d *recordingDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	d.execArgs = append(d.execArgs, args)
	return pgconn.CommandTag("DELETE 0"), nil
}

func (d *recordingDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	d.queryArgs = append(d.queryArgs, args)
	return boolRow{value: true}
}

func TestPostgresStoreUsesApplicationClock(t *testing.T) {
	appNow := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	db := &recordingDB{}
	s := NewPostgresStore(db)
	s.now = func() time.Time { return appNow }

	revoked, err := s.IsRevoked(context.Background(), "fp-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.Len(t, db.queryArgs, 1)
	assert.Equal(t, []interface{}{"fp-1", appNow}, db.queryArgs[0])

	_, err = s.Prune(context.Background(), appNow)
	require.NoError(t, err)
	require.Len(t, db.execArgs, 1)
	assert.Equal(t, []interface{}{appNow}, db.execArgs[0])
}
