package util

import "testing"

func TestValidateEmail(t *testing.T) {
	validos := []string{"maria@example.com", "joao+teste@sub.example.org"}
	for _, email := range validos {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("ValidateEmail(%q): %v", email, err)
		}
	}

	invalidos := []string{"", "   ", "sem-arroba", "a@", "@example.com"}
	for _, email := range invalidos {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("ValidateEmail(%q) deveria falhar", email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("1234567"); err == nil {
		t.Error("senha de 7 caracteres deveria falhar")
	}
	if err := ValidatePassword("12345678"); err != nil {
		t.Errorf("senha de 8 caracteres: %v", err)
	}
}

func TestRequireString(t *testing.T) {
	if err := RequireString("  ", "nome"); err == nil {
		t.Error("string em branco deveria falhar")
	}
	if err := RequireString("Maria", "nome"); err != nil {
		t.Errorf("string preenchida: %v", err)
	}
}
