// Package rdb stores rollcall records in PostgreSQL or SQLite.
package rdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

const (
	DriverPostgres = "postgres"
	DriverSQLite3  = "sqlite3"
)

var (
	//go:embed schema_postgres.sql
	postgresSchema string

	//go:embed schema_sqlite3.sql
	sqliteSchema string
)

type RDB struct {
	db           *sql.DB
	driver       string
	userStatus   *userStatusRepository
	userResponse *userResponseRepository
	messageLog   *messageLogRepository
}

var _ interfaces.Repository = &RDB{}

// New opens dsn with driver and applies the schema. Statements are idempotent.
func New(ctx context.Context, driver, dsn string) (*RDB, error) {
	var schema string
	switch driver {
	case DriverPostgres:
		schema = postgresSchema
	case DriverSQLite3:
		schema = sqliteSchema
	default:
		return nil, goerr.New("unsupported SQL driver", goerr.V("driver", driver))
	}
	if dsn == "" {
		return nil, goerr.New("SQL DSN is required", goerr.V("driver", driver))
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("driver", driver))
	}
	if driver == DriverSQLite3 {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to connect database", goerr.V("driver", driver))
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to apply schema", goerr.V("driver", driver))
	}

	r := &RDB{db: db, driver: driver}
	r.userStatus = &userStatusRepository{r: r}
	r.userResponse = &userResponseRepository{r: r}
	r.messageLog = &messageLogRepository{r: r}
	return r, nil
}

func (x *RDB) UserStatus() interfaces.UserStatusRepository {
	return x.userStatus
}

func (x *RDB) UserResponse() interfaces.UserResponseRepository {
	return x.userResponse
}

func (x *RDB) MessageLog() interfaces.MessageLogRepository {
	return x.messageLog
}

func (x *RDB) Close() error {
	if x.db != nil {
		return x.db.Close()
	}
	return nil
}

// rebind converts "?" placeholders to "$n" for PostgreSQL
func (x *RDB) rebind(query string) string {
	if x.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
