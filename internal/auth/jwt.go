package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TipoAcesso marca tokens de acesso de curta duração.
	TipoAcesso = "access"
	// TipoRefresh marca tokens de renovação de longa duração.
	TipoRefresh = "refresh"
)

// ErrTokenInvalido cobre assinatura inválida, expiração e tipo errado.
var ErrTokenInvalido = errors.New("token inválido")

// AccessClaims representa as informações presentes em um JWT de acesso.
type AccessClaims struct {
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Papel string `json:"papel"`
	Tipo  string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims carrega apenas o sujeito e o jti rastreado para revogação.
type RefreshClaims struct {
	Tipo string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair agrupa o par emitido no login.
type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	RefreshID     string
	RefreshExpiry time.Time
}

// JWTManager encapsula geração e validação de tokens com segredos
// distintos para acesso e refresh.
type JWTManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewJWTManager cria o gerenciador com segredos e TTLs configurados.
func NewJWTManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessTTL expõe a validade do token de acesso (útil para cookies).
func (m *JWTManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// GerarAcesso cria um JWT HS256 de acesso com o conjunto completo de claims.
func (m *JWTManager) GerarAcesso(subject, nome, email, papel string) (string, error) {
	now := time.Now().UTC()

	claims := AccessClaims{
		Nome:  nome,
		Email: email,
		Papel: papel,
		Tipo:  TipoAcesso,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.accessSecret)
}

// GerarPar emite token de acesso e refresh. O jti do refresh é devolvido
// para registro na loja de revogação.
func (m *JWTManager) GerarPar(subject, nome, email, papel string) (*TokenPair, error) {
	access, err := m.GerarAcesso(subject, nome, email, papel)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	jti := uuid.NewString()
	expiry := now.Add(m.refreshTTL)

	refreshClaims := RefreshClaims{
		Tipo: TipoRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(m.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:   access,
		RefreshToken:  refresh,
		RefreshID:     jti,
		RefreshExpiry: expiry,
	}, nil
}

// ValidarAcesso verifica assinatura, expiração e tipo do token de acesso.
func (m *JWTManager) ValidarAcesso(tokenString string) (*AccessClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.accessSecret, nil
	})
	if err != nil {
		return nil, ErrTokenInvalido
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid || claims.Tipo != TipoAcesso {
		return nil, ErrTokenInvalido
	}

	return claims, nil
}

// ValidarRefresh verifica assinatura, expiração e tipo do token de refresh.
// Um token de acesso nunca passa aqui: segredo e marcação de tipo diferem.
func (m *JWTManager) ValidarRefresh(tokenString string) (*RefreshClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenString, &RefreshClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.refreshSecret, nil
	})
	if err != nil {
		return nil, ErrTokenInvalido
	}

	claims, ok := token.Claims.(*RefreshClaims)
	if !ok || !token.Valid || claims.Tipo != TipoRefresh || claims.ID == "" {
		return nil, ErrTokenInvalido
	}

	return claims, nil
}
