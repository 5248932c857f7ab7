package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/painelclima/api/internal/auth"
	"github.com/painelclima/api/internal/db"
	"github.com/painelclima/api/internal/repo"
	"github.com/painelclima/api/internal/util"
)

// ErrPapelInvalido indica papel fora do conjunto user|admin.
var ErrPapelInvalido = errors.New("papel inválido")

type userRepository interface {
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	ListUsuarios(ctx context.Context) ([]repo.Usuario, error)
	GetContaByID(ctx context.Context, id uuid.UUID) (repo.Conta, error)
	InsertUsuarioComConta(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error)
	UpdateUsuarioPerfil(ctx context.Context, id uuid.UUID, nome, email string) error
	UpdateContaEmail(ctx context.Context, id uuid.UUID, email string) (bool, error)
	UpdateUsuarioAdmin(ctx context.Context, id uuid.UUID, papel string, verificado bool) error
	UpdateContaConfirmada(ctx context.Context, id uuid.UUID, confirmado bool) error
	UpdateSenha(ctx context.Context, id uuid.UUID, senhaHash string) error
	DeleteConta(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteUsuario(ctx context.Context, id uuid.UUID) (bool, error)
}

// UserService concentra a administração de perfis e contas.
type UserService struct {
	repo userRepository
	pool *pgxpool.Pool
}

// NewUserService cria o serviço de administração de usuários.
func NewUserService(r *repo.Queries) *UserService {
	return &UserService{repo: r, pool: r.Pool()}
}

// List devolve todos os perfis.
func (s *UserService) List(ctx context.Context) ([]repo.Usuario, error) {
	return s.repo.ListUsuarios(ctx)
}

// Get devolve um perfil por id.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (repo.Usuario, error) {
	return s.repo.GetUsuarioByID(ctx, id)
}

// CreateParams agrupa os campos de criação administrativa.
type CreateParams struct {
	Nome       string
	Email      string
	Senha      string
	Papel      string
	Verificado bool
}

// Create cria conta + perfil por ação administrativa. Diferente do
// cadastro público, o administrador pode liberar o acesso de imediato.
func (s *UserService) Create(ctx context.Context, arg CreateParams) (repo.Usuario, error) {
	arg.Nome = strings.TrimSpace(arg.Nome)
	arg.Email = strings.ToLower(strings.TrimSpace(arg.Email))
	arg.Papel = normalizePapel(arg.Papel)

	if err := util.RequireString(arg.Nome, "nome"); err != nil {
		return repo.Usuario{}, err
	}
	if err := util.ValidateEmail(arg.Email); err != nil {
		return repo.Usuario{}, err
	}
	if err := util.ValidatePassword(arg.Senha); err != nil {
		return repo.Usuario{}, err
	}
	if arg.Papel == "" {
		return repo.Usuario{}, ErrPapelInvalido
	}

	hash, err := auth.Hash(arg.Senha)
	if err != nil {
		return repo.Usuario{}, err
	}

	usuario, err := s.repo.InsertUsuarioComConta(ctx, repo.InsertUsuarioParams{
		ID:              uuid.New(),
		Nome:            arg.Nome,
		Email:           arg.Email,
		SenhaHash:       hash,
		Papel:           arg.Papel,
		Verificado:      arg.Verificado,
		EmailConfirmado: true,
		CriadoEm:        util.Now(),
	})
	if err != nil {
		if errors.Is(err, repo.ErrEmailEmUso) {
			return repo.Usuario{}, ErrEmailEmUso
		}
		return repo.Usuario{}, err
	}
	return usuario, nil
}

// UpdateProfile altera nome/e-mail e, opcionalmente, a senha do próprio
// dono. Troca de e-mail atualiza perfil e credencial juntos: o login
// resolve a senha pelo e-mail da conta, então os dois registros nunca
// podem divergir.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, nome, email, novaSenha string) (repo.Usuario, error) {
	atual, err := s.repo.GetUsuarioByID(ctx, id)
	if err != nil {
		return repo.Usuario{}, err
	}

	nome = strings.TrimSpace(nome)
	if nome == "" {
		nome = atual.Nome
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = atual.Email
	} else if err := util.ValidateEmail(email); err != nil {
		return repo.Usuario{}, err
	}
	if novaSenha != "" {
		if err := util.ValidatePassword(novaSenha); err != nil {
			return repo.Usuario{}, err
		}
	}

	emailAlterado := !strings.EqualFold(email, atual.Email)

	if s.pool != nil {
		err = db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
			if err := repo.UpdateUsuarioPerfilTx(ctx, tx, id, nome, email); err != nil {
				return err
			}
			if emailAlterado {
				// Conta ausente (perfil importado) não é erro.
				if _, err := repo.UpdateContaEmailTx(ctx, tx, id, email); err != nil {
					return err
				}
			}
			return nil
		})
	} else {
		err = s.repo.UpdateUsuarioPerfil(ctx, id, nome, email)
		if err == nil && emailAlterado {
			_, err = s.repo.UpdateContaEmail(ctx, id, email)
		}
	}
	if err != nil {
		if errors.Is(err, repo.ErrEmailEmUso) {
			return repo.Usuario{}, ErrEmailEmUso
		}
		return repo.Usuario{}, err
	}

	if novaSenha != "" {
		hash, err := auth.Hash(novaSenha)
		if err != nil {
			return repo.Usuario{}, err
		}
		if err := s.repo.UpdateSenha(ctx, id, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return repo.Usuario{}, err
		}
	}

	return s.repo.GetUsuarioByID(ctx, id)
}

// UpdateAdmin altera papel e verificação; confirma o e-mail junto com a
// aprovação para não deixar a conta presa no estado intermediário.
func (s *UserService) UpdateAdmin(ctx context.Context, id uuid.UUID, papel string, verificado bool) (repo.Usuario, error) {
	papel = normalizePapel(papel)
	if papel == "" {
		return repo.Usuario{}, ErrPapelInvalido
	}

	if err := s.repo.UpdateUsuarioAdmin(ctx, id, papel, verificado); err != nil {
		return repo.Usuario{}, err
	}

	if verificado {
		if err := s.repo.UpdateContaConfirmada(ctx, id, true); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return repo.Usuario{}, err
		}
	}

	return s.repo.GetUsuarioByID(ctx, id)
}

// DeleteReport descreve o caminho tomado e o resultado de cada passo.
type DeleteReport struct {
	ContaRemovida   bool   `json:"credential_deleted"`
	PerfilRemovido  bool   `json:"profile_deleted"`
	CaminhoFallback string `json:"fallback,omitempty"`
}

// Delete remove conta e perfil. Caminho preferido: uma transação única.
// Fallbacks, nessa ordem: remoções sequenciais com relato por passo e
// remoção só do perfil quando não existe credencial.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) (*DeleteReport, error) {
	_, err := s.repo.GetContaByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		// Perfil importado sem credencial: remove apenas a linha de perfil.
		removed, err := s.repo.DeleteUsuario(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("remover perfil: %w", err)
		}
		if !removed {
			return nil, repo.ErrNotFound
		}
		return &DeleteReport{PerfilRemovido: true, CaminhoFallback: "profile-only"}, nil
	}
	if err != nil {
		return nil, err
	}

	if s.pool != nil {
		report := &DeleteReport{}
		err = db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
			contaOK, err := repo.DeleteContaTx(ctx, tx, id)
			if err != nil {
				return fmt.Errorf("remover conta: %w", err)
			}
			perfilOK, err := repo.DeleteUsuarioTx(ctx, tx, id)
			if err != nil {
				return fmt.Errorf("remover perfil: %w", err)
			}
			if !contaOK && !perfilOK {
				return repo.ErrNotFound
			}
			report.ContaRemovida = contaOK
			report.PerfilRemovido = perfilOK
			return nil
		})
		if err == nil {
			return report, nil
		}
		if errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		log.Warn().Err(err).Str("usuario", id.String()).Msg("delete transacional falhou; tentando passos individuais")
	}

	// Transação indisponível: remoções sequenciais, relatando cada passo
	// para que um estado meio-removido nunca passe despercebido.
	report := &DeleteReport{CaminhoFallback: "sequential"}

	contaOK, contaErr := s.repo.DeleteConta(ctx, id)
	report.ContaRemovida = contaOK

	perfilOK, perfilErr := s.repo.DeleteUsuario(ctx, id)
	report.PerfilRemovido = perfilOK

	if contaErr != nil || perfilErr != nil {
		return report, errors.Join(
			wrapStep("conta", contaErr),
			wrapStep("perfil", perfilErr),
		)
	}
	if !contaOK && !perfilOK {
		return nil, repo.ErrNotFound
	}
	return report, nil
}

func wrapStep(step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("remover %s: %w", step, err)
}

func normalizePapel(papel string) string {
	switch strings.ToLower(strings.TrimSpace(papel)) {
	case repo.PapelUser:
		return repo.PapelUser
	case repo.PapelAdmin:
		return repo.PapelAdmin
	default:
		return ""
	}
}
