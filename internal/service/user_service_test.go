package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/painelclima/api/internal/auth"
	"github.com/painelclima/api/internal/repo"
)

type stubUserRepo struct {
	usuarios map[uuid.UUID]repo.Usuario
	contas   map[uuid.UUID]repo.Conta
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		usuarios: make(map[uuid.UUID]repo.Usuario),
		contas:   make(map[uuid.UUID]repo.Conta),
	}
}

func (s *stubUserRepo) GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error) {
	u, ok := s.usuarios[id]
	if !ok {
		return repo.Usuario{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) ListUsuarios(ctx context.Context) ([]repo.Usuario, error) {
	out := make([]repo.Usuario, 0, len(s.usuarios))
	for _, u := range s.usuarios {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubUserRepo) GetContaByID(ctx context.Context, id uuid.UUID) (repo.Conta, error) {
	c, ok := s.contas[id]
	if !ok {
		return repo.Conta{}, repo.ErrNotFound
	}
	return c, nil
}

func (s *stubUserRepo) GetContaByEmail(ctx context.Context, email string) (repo.Conta, error) {
	for _, c := range s.contas {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return repo.Conta{}, repo.ErrNotFound
}

func (s *stubUserRepo) GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error) {
	for _, u := range s.usuarios {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (s *stubUserRepo) InsertUsuarioComConta(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error) {
	u := repo.Usuario{
		ID:         arg.ID,
		Nome:       arg.Nome,
		Email:      arg.Email,
		Papel:      arg.Papel,
		Verificado: arg.Verificado,
		CriadoEm:   arg.CriadoEm,
	}
	s.usuarios[arg.ID] = u
	s.contas[arg.ID] = repo.Conta{
		ID:              arg.ID,
		Email:           arg.Email,
		SenhaHash:       arg.SenhaHash,
		EmailConfirmado: arg.EmailConfirmado,
		CriadoEm:        arg.CriadoEm,
	}
	return u, nil
}

func (s *stubUserRepo) UpdateUsuarioPerfil(ctx context.Context, id uuid.UUID, nome, email string) error {
	u, ok := s.usuarios[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Nome, u.Email = nome, email
	s.usuarios[id] = u
	return nil
}

func (s *stubUserRepo) UpdateContaEmail(ctx context.Context, id uuid.UUID, email string) (bool, error) {
	c, ok := s.contas[id]
	if !ok {
		return false, nil
	}
	c.Email = email
	s.contas[id] = c
	return true, nil
}

func (s *stubUserRepo) UpdateUsuarioAdmin(ctx context.Context, id uuid.UUID, papel string, verificado bool) error {
	u, ok := s.usuarios[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Papel, u.Verificado = papel, verificado
	s.usuarios[id] = u
	return nil
}

func (s *stubUserRepo) UpdateContaConfirmada(ctx context.Context, id uuid.UUID, confirmado bool) error {
	c, ok := s.contas[id]
	if !ok {
		return repo.ErrNotFound
	}
	c.EmailConfirmado = confirmado
	s.contas[id] = c
	return nil
}

func (s *stubUserRepo) UpdateSenha(ctx context.Context, id uuid.UUID, senhaHash string) error {
	c, ok := s.contas[id]
	if !ok {
		return repo.ErrNotFound
	}
	c.SenhaHash = senhaHash
	s.contas[id] = c
	return nil
}

func (s *stubUserRepo) DeleteConta(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := s.contas[id]; !ok {
		return false, nil
	}
	delete(s.contas, id)
	return true, nil
}

func (s *stubUserRepo) DeleteUsuario(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := s.usuarios[id]; !ok {
		return false, nil
	}
	delete(s.usuarios, id)
	return true, nil
}

func TestNormalizePapel(t *testing.T) {
	cases := []struct {
		entrada  string
		esperado string
	}{
		{"user", "user"},
		{"admin", "admin"},
		{" ADMIN ", "admin"},
		{"User", "user"},
		{"root", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := normalizePapel(tc.entrada); got != tc.esperado {
			t.Errorf("normalizePapel(%q) = %q, esperado %q", tc.entrada, got, tc.esperado)
		}
	}
}

func TestCreateValidaAntesDePersistir(t *testing.T) {
	// Sem repositório: qualquer chamada que passe da validação
	// estouraria, então o teste também prova que a validação vem antes.
	svc := &UserService{}

	cases := []struct {
		nome string
		arg  CreateParams
	}{
		{"papel inválido", CreateParams{Nome: "Maria", Email: "maria@example.com", Senha: "SenhaForte123!", Papel: "root"}},
		{"e-mail inválido", CreateParams{Nome: "Maria", Email: "sem-arroba", Senha: "SenhaForte123!", Papel: "user"}},
		{"senha curta", CreateParams{Nome: "Maria", Email: "maria@example.com", Senha: "abc", Papel: "user"}},
		{"nome vazio", CreateParams{Nome: "  ", Email: "maria@example.com", Senha: "SenhaForte123!", Papel: "user"}},
	}

	for _, tc := range cases {
		if _, err := svc.Create(context.Background(), tc.arg); err == nil {
			t.Errorf("%s: esperado erro de validação", tc.nome)
		}
	}
}

func TestCreateRejeitaPapelDesconhecido(t *testing.T) {
	svc := &UserService{}

	_, err := svc.Create(context.Background(), CreateParams{
		Nome:  "Maria",
		Email: "maria@example.com",
		Senha: "SenhaForte123!",
		Papel: "superuser",
	})
	if !errors.Is(err, ErrPapelInvalido) {
		t.Fatalf("esperado ErrPapelInvalido, obtido %v", err)
	}
}

func TestUpdateAdminAprovaEConfirmaEmail(t *testing.T) {
	repoStub := newStubUserRepo()
	svc := &UserService{repo: repoStub}

	usuario, err := svc.Create(context.Background(), CreateParams{
		Nome:  "Maria",
		Email: "maria@example.com",
		Senha: "SenhaForte123!",
		Papel: "user",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	conta := repoStub.contas[usuario.ID]
	conta.EmailConfirmado = false
	repoStub.contas[usuario.ID] = conta

	atualizado, err := svc.UpdateAdmin(context.Background(), usuario.ID, "admin", true)
	if err != nil {
		t.Fatalf("update admin: %v", err)
	}
	if atualizado.Papel != repo.PapelAdmin || !atualizado.Verificado {
		t.Fatalf("aprovação não aplicada: %+v", atualizado)
	}
	if !repoStub.contas[usuario.ID].EmailConfirmado {
		t.Fatal("aprovação deveria confirmar o e-mail junto")
	}
}

func TestUpdateProfileSincronizaEmailDaConta(t *testing.T) {
	repoStub := newStubUserRepo()
	svc := &UserService{repo: repoStub}

	usuario, err := svc.Create(context.Background(), CreateParams{
		Nome:       "Maria",
		Email:      "maria@example.com",
		Senha:      "SenhaForte123!",
		Papel:      "user",
		Verificado: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	atualizado, err := svc.UpdateProfile(context.Background(), usuario.ID, "Maria Silva", "maria.silva@example.com", "")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if atualizado.Email != "maria.silva@example.com" {
		t.Fatalf("e-mail do perfil não atualizado: %q", atualizado.Email)
	}
	if got := repoStub.contas[usuario.ID].Email; got != "maria.silva@example.com" {
		t.Fatalf("e-mail da conta divergiu do perfil: %q", got)
	}
}

func TestUpdateProfilePermiteLoginComNovoEmail(t *testing.T) {
	repoStub := newStubUserRepo()
	userSvc := &UserService{repo: repoStub}

	const senha = "SenhaForte123!"
	usuario, err := userSvc.Create(context.Background(), CreateParams{
		Nome:       "Maria",
		Email:      "maria@example.com",
		Senha:      senha,
		Papel:      "user",
		Verificado: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := userSvc.UpdateProfile(context.Background(), usuario.ID, "", "maria.silva@example.com", ""); err != nil {
		t.Fatalf("update profile: %v", err)
	}

	jwtMgr := auth.NewJWTManager(strings.Repeat("a", 32), strings.Repeat("b", 32), time.Minute, time.Hour)
	authSvc := NewAuthService(repoStub, auth.NewMemoryRevocationStore(), jwtMgr)

	if _, err := authSvc.Login(context.Background(), "maria.silva@example.com", senha); err != nil {
		t.Fatalf("login com o novo e-mail deveria passar: %v", err)
	}
	if _, err := authSvc.Login(context.Background(), "maria@example.com", senha); !errors.Is(err, ErrCredenciaisInvalidas) {
		t.Fatalf("login com o e-mail antigo deveria falhar, obtido %v", err)
	}
}

func TestDeleteRemoveSoPerfilSemCredencial(t *testing.T) {
	repoStub := newStubUserRepo()
	svc := &UserService{repo: repoStub}

	// Perfil importado sem credencial correspondente.
	id := uuid.New()
	repoStub.usuarios[id] = repo.Usuario{ID: id, Nome: "Órfã", Email: "orfa@example.com", Papel: repo.PapelUser}

	report, err := svc.Delete(context.Background(), id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !report.PerfilRemovido || report.ContaRemovida {
		t.Fatalf("apenas o perfil deveria sair: %+v", report)
	}
	if report.CaminhoFallback != "profile-only" {
		t.Fatalf("caminho esperado profile-only, obtido %q", report.CaminhoFallback)
	}
	if _, ok := repoStub.usuarios[id]; ok {
		t.Fatal("perfil continua presente")
	}
}

func TestDeleteSequencialRelataCadaPasso(t *testing.T) {
	repoStub := newStubUserRepo()
	// Sem pool: o serviço recorre às remoções sequenciais.
	svc := &UserService{repo: repoStub}

	usuario, err := svc.Create(context.Background(), CreateParams{
		Nome:       "Maria",
		Email:      "maria@example.com",
		Senha:      "SenhaForte123!",
		Papel:      "user",
		Verificado: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	report, err := svc.Delete(context.Background(), usuario.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !report.ContaRemovida || !report.PerfilRemovido {
		t.Fatalf("conta e perfil deveriam sair: %+v", report)
	}
	if report.CaminhoFallback != "sequential" {
		t.Fatalf("caminho esperado sequential, obtido %q", report.CaminhoFallback)
	}

	if _, err := svc.Delete(context.Background(), usuario.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("segunda remoção deveria ser ErrNotFound, obtido %v", err)
	}
}
