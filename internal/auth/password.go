package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of the password using DefaultCost.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a bcrypt hashed password with its possible plaintext equivalent.
func CheckPassword(hash string, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Operator: единственная учётная запись администратора API из конфига
type Operator struct {
	Name         string
	PasswordHash string
}

// Enabled сообщает, настроен ли пароль. Без пароля изменяющие маршруты открыты.
func (o Operator) Enabled() bool {
	return o.PasswordHash != ""
}

// Authenticate проверяет имя и пароль оператора
func (o Operator) Authenticate(name, password string) bool {
	if !o.Enabled() {
		return false
	}
	nameOK := subtle.ConstantTimeCompare([]byte(name), []byte(o.Name)) == 1
	// bcrypt считаем всегда, чтобы время ответа не выдавало имя
	passOK := CheckPassword(o.PasswordHash, password)
	return nameOK && passOK
}
