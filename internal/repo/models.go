package repo

import (
	"time"

	"github.com/google/uuid"
)

// Papéis reconhecidos pelo painel.
const (
	PapelUser  = "user"
	PapelAdmin = "admin"
)

// Usuario representa o perfil exibido e administrado pelo painel.
type Usuario struct {
	ID         uuid.UUID `json:"id"`
	Nome       string    `json:"name"`
	Email      string    `json:"email"`
	Papel      string    `json:"role"`
	Verificado bool      `json:"is_verified"`
	CriadoEm   time.Time `json:"created_at"`
}

// Conta representa o registro de credenciais, separado do perfil para
// espelhar o provedor de identidade original (conta pode faltar para
// perfis importados).
type Conta struct {
	ID              uuid.UUID
	Email           string
	SenhaHash       string
	EmailConfirmado bool
	CriadoEm        time.Time
}
