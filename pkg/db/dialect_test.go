package db

import (
	"testing"

	"github.com/smallbiznis/gstengine/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	base := config.Config{DBHost: "db", DBPort: "5432", DBName: "gst", DBUser: "app", DBPassword: "p@ss"}

	pg := base
	pg.DBType = "PostgreSQL"
	dsn, err := DSN(pg)
	require.NoError(t, err)
	require.Equal(t, "postgres://app:p%40ss@db:5432/gst?TimeZone=UTC&sslmode=disable", dsn)

	my := base
	my.DBType = "mysql"
	my.DBPort = "3306"
	dsn, err = DSN(my)
	require.NoError(t, err)
	require.Equal(t, "app:p@ss@tcp(db:3306)/gst?charset=utf8mb4&parseTime=True&loc=UTC", dsn)

	lite := config.Config{DBType: "sqlite"}
	dsn, err = DSN(lite)
	require.NoError(t, err)
	require.Equal(t, "file::memory:?cache=shared", dsn)

	_, err = DSN(config.Config{DBType: "oracle"})
	require.ErrorIs(t, err, ErrUnsupportedDialect)
}
