package auth

import (
	"github.com/alexedwards/argon2id"
)

// hashParams fixa o custo do Argon2id usado nas credenciais do painel.
// Parallelism 1 mantém o custo previsível nas instâncias pequenas onde
// a API roda.
var hashParams = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera o hash Argon2id da senha. Os parâmetros ficam codificados
// no próprio hash, então podem mudar sem invalidar senhas antigas.
func Hash(senha string) (string, error) {
	return argon2id.CreateHash(senha, hashParams)
}

// Verify compara a senha com um hash Argon2id, lendo os parâmetros do
// próprio hash.
func Verify(senha, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(senha, hash)
}
