package postgres

import (
	"context"

	"github.com/momeni/bulkmig/pkg/core/repo"
	"gorm.io/gorm"
)

// Conn wraps one dedicated *gorm.DB connection. Statements run in
// autocommit mode; there is deliberately no transactional variant
// since CREATE DATABASE and DROP DATABASE refuse to run inside a
// transaction block and the catalog snapshots must be taken outside
// of any open transaction.
type Conn struct {
	*gorm.DB
}

// Exec runs the sql statement with the given args on this connection,
// returning the number of affected rows. With non-empty args, sql is
// prepared and must contain exactly one statement; parameters should
// be numbered like $1, $2, as supported by the PostgreSQL wire
// protocol natively.
func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tt := c.DB.WithContext(ctx).Exec(sql, args...)
	if err := tt.Error; err != nil {
		return 0, err
	}
	return tt.RowsAffected, nil
}

// Query runs the sql statement with the given args on this connection
// and returns the result set as the repo.Rows interface. The returned
// rows must be closed before this connection can run another
// statement.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (repo.Rows, error) {
	rows, err := c.DB.WithContext(ctx).Raw(sql, args...).Rows()
	return rowsAdapter{rows}, err
}

// IsConn method prevents other types from mistakenly implementing the
// repo.Conn interface.
func (c *Conn) IsConn() {
}

// GORM returns the embedded *gorm.DB instance, configuring it
// to operate on the given ctx context.
func (c *Conn) GORM(ctx context.Context) *gorm.DB {
	return c.DB.WithContext(ctx)
}
