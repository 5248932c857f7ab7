package storage

import "context"

// Arquivo representa uma exportação a ser arquivada.
type Arquivo struct {
	Chave       string
	Conteudo    []byte
	ContentType string
}

// Resultado descreve o artefato persistido.
type Resultado struct {
	URL  string
	ETag string
}

// Arquivador define o comportamento básico para guardar exportações.
type Arquivador interface {
	Guardar(ctx context.Context, arq Arquivo) (*Resultado, error)
}
