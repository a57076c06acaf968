package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const (
	mysqlDuplicateEntry     = 1062
	postgresUniqueViolation = "23505"
)

// Conflict reasons reported by ConflictReason.
const (
	ReasonDuplicatedKey    = "duplicated_key"
	ReasonSQLitePrimaryKey = "sqlite_primary_key"
	ReasonSQLiteUnique     = "sqlite_unique"
	ReasonMySQLDuplicate   = "mysql_duplicate_entry"
	ReasonPostgresUnique   = "postgres_unique_violation"
	ReasonMessage          = "message"
)

// IsUniqueViolation reports whether err is a primary key or unique index conflict.
func IsUniqueViolation(err error) bool {
	_, ok := ConflictReason(err)
	return ok
}

// ConflictReason classifies err as a uniqueness conflict. Driver error codes are checked
// first; drivers that surface no code are matched on "primary" or "unique" in the message.
func ConflictReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ReasonDuplicatedKey, true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey:
			return ReasonSQLitePrimaryKey, true
		case sqlite3.ErrConstraintUnique:
			return ReasonSQLiteUnique, true
		}
		return "", false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil {
		if myErr.Number == mysqlDuplicateEntry {
			return ReasonMySQLDuplicate, true
		}
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil {
		if pgErr.Code == postgresUniqueViolation {
			return ReasonPostgresUnique, true
		}
		return "", false
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "primary") || strings.Contains(lower, "unique") {
		return ReasonMessage, true
	}
	return "", false
}
