package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/painelclima/api/internal/auth"
	"github.com/painelclima/api/internal/repo"
	"github.com/painelclima/api/internal/util"
)

var (
	// ErrCredenciaisInvalidas indica falha na autenticação.
	ErrCredenciaisInvalidas = errors.New("credenciais inválidas")
	// ErrEmailNaoConfirmado indica conta criada mas com e-mail pendente.
	ErrEmailNaoConfirmado = errors.New("e-mail não confirmado")
	// ErrAguardandoAprovacao indica conta confirmada aguardando liberação
	// por um administrador. É um estado informativo, não uma falha.
	ErrAguardandoAprovacao = errors.New("conta aguardando aprovação")
	// ErrRefreshInvalido indica refresh token inválido, expirado ou revogado.
	ErrRefreshInvalido = errors.New("refresh token inválido")
	// ErrEmailEmUso indica tentativa de cadastro com e-mail existente.
	ErrEmailEmUso = errors.New("e-mail já cadastrado")
)

type authRepository interface {
	GetContaByEmail(ctx context.Context, email string) (repo.Conta, error)
	GetContaByID(ctx context.Context, id uuid.UUID) (repo.Conta, error)
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	InsertUsuarioComConta(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error)
}

// AuthService concentra regras de autenticação e sessões.
type AuthService struct {
	repo      authRepository
	revocacao auth.RevocationStore
	jwt       *auth.JWTManager
}

// NewAuthService cria novo serviço. As validades dos tokens vêm do
// próprio JWTManager.
func NewAuthService(r authRepository, store auth.RevocationStore, jwtMgr *auth.JWTManager) *AuthService {
	return &AuthService{repo: r, revocacao: store, jwt: jwtMgr}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken   string
	RefreshToken  string
	RefreshExpiry time.Time
	Usuario       repo.Usuario
}

// Login autentica por e-mail e senha e emite o par de tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	conta, err := s.repo.GetContaByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: conta não encontrada")
			return nil, ErrCredenciaisInvalidas
		}
		return nil, err
	}

	ok, err := auth.Verify(password, conta.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verificação de senha falhou")
		return nil, ErrCredenciaisInvalidas
	}
	if !ok {
		log.Warn().Msg("login: senha inválida")
		return nil, ErrCredenciaisInvalidas
	}

	usuario, err := s.repo.GetUsuarioByID(ctx, conta.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Credencial órfã sem perfil equivale a conta inexistente.
			return nil, ErrCredenciaisInvalidas
		}
		return nil, err
	}

	if !conta.EmailConfirmado {
		return nil, ErrEmailNaoConfirmado
	}
	if !usuario.Verificado {
		return nil, ErrAguardandoAprovacao
	}

	return s.emitirPar(ctx, usuario)
}

// Register cria conta pendente; nunca autentica o chamador. O login só
// passa depois que um administrador marca o perfil como verificado.
func (s *AuthService) Register(ctx context.Context, nome, email, password string) (repo.Usuario, error) {
	nome = strings.TrimSpace(nome)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := util.RequireString(nome, "nome"); err != nil {
		return repo.Usuario{}, err
	}
	if err := util.ValidateEmail(email); err != nil {
		return repo.Usuario{}, err
	}
	if err := util.ValidatePassword(password); err != nil {
		return repo.Usuario{}, err
	}

	hash, err := auth.Hash(password)
	if err != nil {
		return repo.Usuario{}, err
	}

	usuario, err := s.repo.InsertUsuarioComConta(ctx, repo.InsertUsuarioParams{
		ID:         uuid.New(),
		Nome:       nome,
		Email:      email,
		SenhaHash:  hash,
		Papel:      repo.PapelUser,
		Verificado: false,
		CriadoEm:   util.Now(),
	})
	if err != nil {
		if errors.Is(err, repo.ErrEmailEmUso) {
			return repo.Usuario{}, ErrEmailEmUso
		}
		return repo.Usuario{}, err
	}

	return usuario, nil
}

// Refresh valida o refresh token e emite novo token de acesso com o
// conjunto completo de claims relido do banco. O refresh token em si
// não é rotacionado.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (string, error) {
	if rawToken == "" {
		return "", ErrRefreshInvalido
	}

	claims, err := s.jwt.ValidarRefresh(rawToken)
	if err != nil {
		return "", ErrRefreshInvalido
	}

	ativo, err := s.revocacao.Ativo(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if !ativo {
		return "", ErrRefreshInvalido
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", ErrRefreshInvalido
	}

	usuario, err := s.repo.GetUsuarioByID(ctx, subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrRefreshInvalido
		}
		return "", err
	}
	if !usuario.Verificado {
		return "", ErrRefreshInvalido
	}

	return s.jwt.GerarAcesso(usuario.ID.String(), usuario.Nome, usuario.Email, usuario.Papel)
}

// Logout revoga o refresh token atual. Token ausente ou já revogado não
// é erro: a operação precisa ser idempotente.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}

	claims, err := s.jwt.ValidarRefresh(rawToken)
	if err != nil {
		return nil
	}

	if _, err := s.revocacao.Revogar(ctx, claims.ID); err != nil {
		log.Warn().Err(err).Msg("logout: falha ao revogar refresh")
		return err
	}
	return nil
}

// GetMe devolve o perfil do sujeito autenticado.
func (s *AuthService) GetMe(ctx context.Context, subject uuid.UUID) (repo.Usuario, error) {
	return s.repo.GetUsuarioByID(ctx, subject)
}

func (s *AuthService) emitirPar(ctx context.Context, usuario repo.Usuario) (*LoginResult, error) {
	par, err := s.jwt.GerarPar(usuario.ID.String(), usuario.Nome, usuario.Email, usuario.Papel)
	if err != nil {
		return nil, err
	}

	if err := s.revocacao.Registrar(ctx, par.RefreshID, usuario.ID.String(), par.RefreshExpiry); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:   par.AccessToken,
		RefreshToken:  par.RefreshToken,
		RefreshExpiry: par.RefreshExpiry,
		Usuario:       usuario,
	}, nil
}
