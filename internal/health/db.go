package health

import (
	"context"
	"database/sql"
	"time"
)

// Database returns a checker that pings the given database with a short
// timeout. Registered only when the server runs with PostgreSQL.
func Database(db *sql.DB) Checker {
	return func(ctx context.Context) Status {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return Status{Name: "database", Healthy: false, Detail: err.Error()}
		}
		return Status{Name: "database", Healthy: true}
	}
}
