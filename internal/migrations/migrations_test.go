package migrations_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-menu/internal/migrations"
)

func TestEmbeddedSource(t *testing.T) {
	src, err := migrations.Source()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	require.EqualValues(t, 1, first)

	r, _, err := src.ReadUp(first)
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	for _, table := range []string{"categories", "subcategories", "items", "addons", "bookings"} {
		require.True(t, strings.Contains(string(body), "CREATE TABLE "+table), table)
	}

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	require.NoError(t, down.Close())
}

func TestDriverURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@localhost:5432/menu?sslmode=disable", migrations.DriverURL("postgres://u:p@localhost:5432/menu?sslmode=disable"))
	require.Equal(t, "pgx5://localhost/menu", migrations.DriverURL("postgresql://localhost/menu"))
	require.Equal(t, "pgx5://already", migrations.DriverURL("pgx5://already"))
}

func TestLatest(t *testing.T) {
	v, err := migrations.Latest()
	require.NoError(t, err)
	require.EqualValues(t, 1, v)
}
