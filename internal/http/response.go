package http

import (
	"encoding/json"
	"net/http"
)

// WriteJSON escreve o corpo de sucesso no contrato plano do painel.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteMessage escreve apenas {message}.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"message": message})
}

// WriteError escreve {message} para falhas; o texto é sempre seguro para
// o cliente, nunca um stack trace.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"message": message})
}

// WriteDataError escreve {error}, o formato das rotas de dados.
func WriteDataError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
