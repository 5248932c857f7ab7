package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WithTx abre uma transação, executa fn e confirma se fn devolver nil.
// Qualquer erro (inclusive de commit) desfaz tudo: é o caminho usado
// pelas operações que tocam conta e perfil juntas, que nunca podem
// aplicar só metade da mudança.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
