package storage

import (
	"context"
	"errors"
)

// ErrSemBackend indica que nenhum bucket foi configurado.
var ErrSemBackend = errors.New("storage: arquivador não configurado")

// NoopArquivador devolve erro indicando que não há backend configurado.
type NoopArquivador struct{}

// Guardar sempre retorna ErrSemBackend.
func (NoopArquivador) Guardar(ctx context.Context, arq Arquivo) (*Resultado, error) {
	return nil, ErrSemBackend
}
