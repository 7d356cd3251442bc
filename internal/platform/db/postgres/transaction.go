package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrReadOnlyTransaction は読み取り専用トランザクションの内側で書き込みを始めようとした場合に返却されます。
var ErrReadOnlyTransaction = errors.New("postgres: write requested inside read-only transaction")

type txKey struct{}

// activeTx はコンテキストに載せる実行中のトランザクションです。
type activeTx struct {
	tx   pgx.Tx
	mode pgx.TxAccessMode
}

// txStarter は pgxpool.Pool と pgxmock のプールが満たします。
type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TransactionManager は employee.TransactionManager の pgx 実装です。
// 社員の登録・更新・削除は読み書きトランザクション、レジストリの復元は
// REPEATABLE READ の読み取り専用トランザクションで実行します。
type TransactionManager struct {
	pool txStarter
}

// NewTransactionManager は TransactionManager を生成します。pool が nil の場合は nil を返し、
// その TransactionManager は fn をトランザクションなしで実行します。
func NewTransactionManager(pool txStarter) *TransactionManager {
	if pool == nil {
		return nil
	}
	return &TransactionManager{pool: pool}
}

// WithinReadOnly はスナップショット読み出し用のトランザクションで fn を実行します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return m.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

// WithinReadWrite は書き込み用のトランザクションで fn を実行します。fn がエラーを返すとロールバックします。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return m.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite}, fn)
}

func (m *TransactionManager) run(ctx context.Context, opts pgx.TxOptions, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("postgres: transaction function is required")
	}
	if m == nil {
		return fn(ctx)
	}

	// 既存のトランザクションに参加する。読み取り専用の内側で書き込みは始められない。
	if current, ok := fromContext(ctx); ok {
		if current.mode == pgx.ReadOnly && opts.AccessMode == pgx.ReadWrite {
			return ErrReadOnlyTransaction
		}
		return fn(ctx)
	}

	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, activeTx{tx: tx, mode: opts.AccessMode})); err != nil {
		return errors.Join(err, rollback(ctx, tx))
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Join(fmt.Errorf("postgres: commit: %w", err), rollback(ctx, tx))
	}
	return nil
}

func rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}

func fromContext(ctx context.Context) (activeTx, bool) {
	if ctx == nil {
		return activeTx{}, false
	}
	current, ok := ctx.Value(txKey{}).(activeTx)
	return current, ok
}

// QueryerFromContext は実行中のトランザクションがあればそれを、なければ fallback を返します。
// EmployeeStore はすべてのクエリをこれ経由で発行します。
func QueryerFromContext(ctx context.Context, fallback Queryer) Queryer {
	if current, ok := fromContext(ctx); ok {
		return current.tx
	}
	return fallback
}

// Queryer は pgx.Tx と pgxpool.Pool が共通して満たすクエリ実行インターフェースです。
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
