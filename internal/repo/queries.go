package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries concentra o acesso às tabelas contas e usuarios.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria o repositório sobre o pool compartilhado.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const usuarioColumns = `id, nome, email, papel, verificado, criado_em`

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.Papel, &u.Verificado, &u.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Usuario{}, ErrNotFound
		}
		return Usuario{}, err
	}
	return u, nil
}

// GetUsuarioByID busca o perfil pelo identificador.
func (q *Queries) GetUsuarioByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE id = $1`, id)
	return scanUsuario(row)
}

// GetUsuarioByEmail busca o perfil pelo e-mail (case-insensitive via lower no insert).
func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE email = $1`, email)
	return scanUsuario(row)
}

// ListUsuarios devolve todos os perfis ordenados por criação.
func (q *Queries) ListUsuarios(ctx context.Context) ([]Usuario, error) {
	rows, err := q.pool.Query(ctx, `SELECT `+usuarioColumns+` FROM usuarios ORDER BY criado_em DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usuarios []Usuario
	for rows.Next() {
		var u Usuario
		if err := rows.Scan(&u.ID, &u.Nome, &u.Email, &u.Papel, &u.Verificado, &u.CriadoEm); err != nil {
			return nil, err
		}
		usuarios = append(usuarios, u)
	}
	return usuarios, rows.Err()
}

// GetContaByEmail busca credenciais pelo e-mail.
func (q *Queries) GetContaByEmail(ctx context.Context, email string) (Conta, error) {
	var c Conta
	err := q.pool.QueryRow(ctx, `SELECT id, email, senha_hash, email_confirmado, criado_em FROM contas WHERE email = $1`, email).
		Scan(&c.ID, &c.Email, &c.SenhaHash, &c.EmailConfirmado, &c.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conta{}, ErrNotFound
		}
		return Conta{}, err
	}
	return c, nil
}

// GetContaByID busca credenciais pelo identificador.
func (q *Queries) GetContaByID(ctx context.Context, id uuid.UUID) (Conta, error) {
	var c Conta
	err := q.pool.QueryRow(ctx, `SELECT id, email, senha_hash, email_confirmado, criado_em FROM contas WHERE id = $1`, id).
		Scan(&c.ID, &c.Email, &c.SenhaHash, &c.EmailConfirmado, &c.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conta{}, ErrNotFound
		}
		return Conta{}, err
	}
	return c, nil
}

// InsertUsuarioParams agrupa os campos necessários para criar conta + perfil.
type InsertUsuarioParams struct {
	ID              uuid.UUID
	Nome            string
	Email           string
	SenhaHash       string
	Papel           string
	Verificado      bool
	EmailConfirmado bool
	CriadoEm        time.Time
}

// InsertUsuarioComConta cria credencial e perfil na mesma transação.
func (q *Queries) InsertUsuarioComConta(ctx context.Context, arg InsertUsuarioParams) (Usuario, error) {
	tx, err := q.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Usuario{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO contas (id, email, senha_hash, email_confirmado, criado_em) VALUES ($1, $2, $3, $4, $5)`,
		arg.ID, arg.Email, arg.SenhaHash, arg.EmailConfirmado, arg.CriadoEm)
	if err != nil {
		return Usuario{}, mapUniqueViolation(err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO usuarios (id, nome, email, papel, verificado, criado_em) VALUES ($1, $2, $3, $4, $5, $6)`,
		arg.ID, arg.Nome, arg.Email, arg.Papel, arg.Verificado, arg.CriadoEm)
	if err != nil {
		return Usuario{}, mapUniqueViolation(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Usuario{}, err
	}

	return Usuario{
		ID:         arg.ID,
		Nome:       arg.Nome,
		Email:      arg.Email,
		Papel:      arg.Papel,
		Verificado: arg.Verificado,
		CriadoEm:   arg.CriadoEm,
	}, nil
}

// UpdateUsuarioPerfil altera nome e e-mail do perfil.
func (q *Queries) UpdateUsuarioPerfil(ctx context.Context, id uuid.UUID, nome, email string) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE usuarios SET nome = $2, email = $3 WHERE id = $1`, id, nome, email)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUsuarioPerfilTx altera nome e e-mail do perfil dentro de uma transação.
func UpdateUsuarioPerfilTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, nome, email string) error {
	cmd, err := tx.Exec(ctx, `UPDATE usuarios SET nome = $2, email = $3 WHERE id = $1`, id, nome, email)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateContaEmailTx sincroniza o e-mail de login da credencial dentro de
// uma transação. Informa se havia credencial para atualizar: perfis
// importados sem conta não são erro.
func UpdateContaEmailTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, email string) (bool, error) {
	cmd, err := tx.Exec(ctx, `UPDATE contas SET email = $2 WHERE id = $1`, id, email)
	if err != nil {
		return false, mapUniqueViolation(err)
	}
	return cmd.RowsAffected() > 0, nil
}

// UpdateContaEmail sincroniza o e-mail de login fora de transação
// (caminho de fallback).
func (q *Queries) UpdateContaEmail(ctx context.Context, id uuid.UUID, email string) (bool, error) {
	cmd, err := q.pool.Exec(ctx, `UPDATE contas SET email = $2 WHERE id = $1`, id, email)
	if err != nil {
		return false, mapUniqueViolation(err)
	}
	return cmd.RowsAffected() > 0, nil
}

// UpdateUsuarioAdmin altera papel e verificação (operação de administrador).
func (q *Queries) UpdateUsuarioAdmin(ctx context.Context, id uuid.UUID, papel string, verificado bool) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE usuarios SET papel = $2, verificado = $3 WHERE id = $1`, id, papel, verificado)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateContaConfirmada marca o e-mail da conta como confirmado.
func (q *Queries) UpdateContaConfirmada(ctx context.Context, id uuid.UUID, confirmado bool) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE contas SET email_confirmado = $2 WHERE id = $1`, id, confirmado)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSenha troca o hash de senha da conta.
func (q *Queries) UpdateSenha(ctx context.Context, id uuid.UUID, senhaHash string) error {
	cmd, err := q.pool.Exec(ctx, `UPDATE contas SET senha_hash = $2 WHERE id = $1`, id, senhaHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteContaTx remove a credencial dentro de uma transação.
func DeleteContaTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	cmd, err := tx.Exec(ctx, `DELETE FROM contas WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// DeleteUsuarioTx remove o perfil dentro de uma transação.
func DeleteUsuarioTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	cmd, err := tx.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// DeleteConta remove a credencial fora de transação (caminho de fallback).
func (q *Queries) DeleteConta(ctx context.Context, id uuid.UUID) (bool, error) {
	cmd, err := q.pool.Exec(ctx, `DELETE FROM contas WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// DeleteUsuario remove o perfil fora de transação (caminho de fallback).
func (q *Queries) DeleteUsuario(ctx context.Context, id uuid.UUID) (bool, error) {
	cmd, err := q.pool.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// Pool expõe o pool para operações transacionais do serviço.
func (q *Queries) Pool() *pgxpool.Pool {
	return q.pool
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailEmUso
	}
	return err
}
