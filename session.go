package pgbulk

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session is the database surface the loader drives: statement execution,
// querying, and the raw COPY FROM STDIN protocol fed by a text stream.
type Session interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	CopyFrom(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error)
}

// Tx is a Session bound to an open transaction.
type Tx interface {
	Session
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Client hands out sessions to the loader. Reads run directly on the
// client; writes run inside a transaction obtained from Begin. Adapters
// are provided for *pgx.Conn, *pgxpool.Pool and an ambient pgx.Tx.
type Client interface {
	Session
	Begin(ctx context.Context) (Tx, error)
}

// NewClient wraps a single pgx connection as a Client. The connection is
// occupied for the full duration of each operation.
func NewClient(conn *pgx.Conn) Client {
	return &connClient{conn: conn}
}

type connClient struct {
	conn *pgx.Conn
}

func (c *connClient) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.conn.Exec(ctx, sql, args...)
}

func (c *connClient) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

func (c *connClient) CopyFrom(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error) {
	return c.conn.PgConn().CopyFrom(ctx, r, sql)
}

func (c *connClient) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx: tx}, nil
}

// NewPoolClient wraps a pgxpool.Pool as a Client. Each transaction holds
// one pooled connection until commit or rollback.
func NewPoolClient(pool *pgxpool.Pool) Client {
	return &poolClient{pool: pool}
}

type poolClient struct {
	pool *pgxpool.Pool
}

func (c *poolClient) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.pool.Exec(ctx, sql, args...)
}

func (c *poolClient) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.pool.Query(ctx, sql, args...)
}

func (c *poolClient) CopyFrom(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	defer conn.Release()
	return conn.Conn().PgConn().CopyFrom(ctx, r, sql)
}

func (c *poolClient) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx: tx}, nil
}

// NewTxClient wraps an ambient pgx transaction as a Client, so bulk
// operations (and row-locking selects) participate in a caller-managed
// transaction. Begin opens a nested transaction (savepoint).
func NewTxClient(tx pgx.Tx) Client {
	return &txClient{pgxTx{tx: tx}}
}

type txClient struct {
	pgxTx
}

func (c *txClient) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx: tx}, nil
}

// pgxTx adapts pgx.Tx to the Tx interface, routing CopyFrom through the
// underlying PgConn so the raw text stream is sent verbatim.
type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}

func (t *pgxTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}

func (t *pgxTx) CopyFrom(ctx context.Context, r io.Reader, sql string) (pgconn.CommandTag, error) {
	return t.tx.Conn().PgConn().CopyFrom(ctx, r, sql)
}

func (t *pgxTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgxTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
