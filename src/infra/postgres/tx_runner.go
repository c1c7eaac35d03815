package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier é o subconjunto comum entre pool e transação. Os repositórios
// escrevem contra essa interface e nunca sabem se estão dentro de uma
// transação ou não.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txContextKey struct{}

// TxRunner é o coordenador de transações: abre, comita ou desfaz uma
// transação do pool e a carrega no contexto para que chamadas aninhadas
// reutilizem o mesmo handle (commit fica com o frame mais externo).
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTransaction executa fn dentro de uma transação. Retorno normal comita;
// erro desfaz e o erro original sobe inalterado.
func (r *TxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := TxFromContext(ctx); tx != nil {
		// Já existe transação ativa no escopo: reaproveita.
		return fn(ctx)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txContextKey{}, tx)

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

// InTransaction reports whether ctx carries an active handle.
func (r *TxRunner) InTransaction(ctx context.Context) bool {
	return TxFromContext(ctx) != nil
}

// TxFromContext devolve o handle ativo, ou nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx
}

// QuerierFrom devolve a transação ativa do contexto, ou o pool.
func QuerierFrom(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}
