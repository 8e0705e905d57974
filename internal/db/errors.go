package db

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNoTransaction is returned by Commit when no transaction is open.
	ErrNoTransaction = errors.New("no transaction in progress")
	// ErrTransactionActive is returned by StartTransaction when one is already open.
	ErrTransactionActive = errors.New("transaction already in progress")
	// ErrNoGeneratedID is returned by LastInsertID before any insert on the session.
	ErrNoGeneratedID = errors.New("no generated id available on this connection")
	// ErrProceduresUnsupported is returned by CallProcedure on engines without stored procedures.
	ErrProceduresUnsupported = errors.New("stored procedures are not supported by this database")
	// ErrSessionClosed is returned by any operation after Close.
	ErrSessionClosed = errors.New("database session is closed")
)

// DatabaseError wraps every failure coming out of a Gateway. Op names the
// gateway operation, Err carries the driver's message.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return err
	}
	return &DatabaseError{Op: op, Err: err}
}

// IsDuplicateKey reports whether err is a primary key or unique constraint violation.
func IsDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// IsForeignKeyViolation reports whether err is a foreign key violation, either a
// missing parent on insert or a referenced parent on delete.
func IsForeignKeyViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1451 || myErr.Number == 1452
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
