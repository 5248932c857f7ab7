package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/painelclima/api/internal/db"
	"github.com/painelclima/api/internal/repo"
	"github.com/painelclima/api/internal/service"
)

// Cria o administrador inicial do painel. Idempotente: se o e-mail já
// existe, apenas informa e sai.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	nome := flag.String("nome", "Administrador", "nome do administrador")
	email := flag.String("email", "", "e-mail de login")
	senha := flag.String("senha", "", "senha inicial")
	flag.Parse()

	if *email == "" || *senha == "" {
		log.Fatal().Msg("uso: seed -email <e-mail> -senha <senha> [-nome <nome>]")
	}

	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("conexão com o banco falhou")
	}
	defer pool.Close()

	users := service.NewUserService(repo.New(pool))

	usuario, err := users.Create(ctx, service.CreateParams{
		Nome:       *nome,
		Email:      *email,
		Senha:      *senha,
		Papel:      repo.PapelAdmin,
		Verificado: true,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailEmUso) {
			log.Info().Str("email", *email).Msg("administrador já existe")
			return
		}
		log.Fatal().Err(err).Msg("criação do administrador falhou")
	}

	log.Info().Str("id", usuario.ID.String()).Str("email", usuario.Email).Msg("administrador criado")
}
