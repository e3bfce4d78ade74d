package mystore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
  kind    TEXT NOT NULL,
  uid     TEXT NOT NULL,
  payload TEXT NOT NULL,
  PRIMARY KEY (kind, uid)
);`

type sqliteStore[T any] struct {
	db   *sql.DB
	kind string
}

func newSqliteStore[T any](c context.Context, filename string) (*sqliteStore[T], func(), error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening sqlite database %s: %s", filename, err)
	}

	// The engine serializes writes itself; a single connection keeps sqlite happy
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(c, sqliteSchema)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("error creating sqlite schema: %s", err)
	}

	val := new(T)
	kind := fmt.Sprintf("%T", *val)
	if strings.Contains(kind, ".") {
		kind = strings.Split(kind, ".")[1]
	}

	return &sqliteStore[T]{
			db:   db,
			kind: kind,
		}, func() {
			db.Close()
		}, nil
}

func (s *sqliteStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	// Start transaction
	tx, err := s.db.BeginTx(c, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %s", err)
	}

	ctx := context.WithValue(c, ctxTransactionKey{}, tx)

	// Shadow original context with new transactional context
	err = f(ctx)
	if err != nil {

		// Rollback
		rollbackError := tx.Rollback()
		if rollbackError != nil {
			return fmt.Errorf("error rolling-back transaction: %s (original error: %s)", rollbackError, err)
		}

		return err
	}

	// Commit
	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("error committing transaction: %s", err)
	}

	return nil
}

func (s *sqliteStore[T]) Put(c context.Context, uid string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error marshalling entity %s with uid %s: %s", s.kind, uid, err)
	}

	query := `INSERT INTO records (kind, uid, payload) VALUES (?, ?, ?)
	          ON CONFLICT (kind, uid) DO UPDATE SET payload = excluded.payload`

	transaction := c.Value(ctxTransactionKey{})
	if transaction != nil {
		_, err = transaction.(*sql.Tx).ExecContext(c, query, s.kind, uid, string(payload))
	} else {
		_, err = s.db.ExecContext(c, query, s.kind, uid, string(payload))
	}
	if err != nil {
		return fmt.Errorf("error storing entity %s with uid %s: %s", s.kind, uid, err)
	}

	return nil
}

func (s *sqliteStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	value := new(T)

	query := `SELECT payload FROM records WHERE kind = ? AND uid = ?`

	var row *sql.Row
	transaction := c.Value(ctxTransactionKey{})
	if transaction != nil {
		row = transaction.(*sql.Tx).QueryRowContext(c, query, s.kind, uid)
	} else {
		row = s.db.QueryRowContext(c, query, s.kind, uid)
	}

	var payload string
	err := row.Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return *value, false, nil
		}
		return *value, false, fmt.Errorf("error fetching entity %s with uid %s: %s", s.kind, uid, err)
	}

	err = json.Unmarshal([]byte(payload), value)
	if err != nil {
		return *value, false, fmt.Errorf("error unmarshalling entity %s with uid %s: %s", s.kind, uid, err)
	}

	return *value, true, nil
}

func (s *sqliteStore[T]) List(c context.Context) ([]T, error) {
	query := `SELECT payload FROM records WHERE kind = ? ORDER BY uid`

	var rows *sql.Rows
	var err error
	transaction := c.Value(ctxTransactionKey{})
	if transaction != nil {
		rows, err = transaction.(*sql.Tx).QueryContext(c, query, s.kind)
	} else {
		rows, err = s.db.QueryContext(c, query, s.kind)
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching all entities %s: %s", s.kind, err)
	}
	defer rows.Close()

	result := []T{}
	for rows.Next() {
		var payload string
		err = rows.Scan(&payload)
		if err != nil {
			return nil, fmt.Errorf("error scanning entity %s: %s", s.kind, err)
		}
		value := new(T)
		err = json.Unmarshal([]byte(payload), value)
		if err != nil {
			return nil, fmt.Errorf("error unmarshalling entity %s: %s", s.kind, err)
		}
		result = append(result, *value)
	}

	return result, rows.Err()
}
