// Package credential проверяет пароли и лениво регистрирует пользователей при первом входе.
package credential

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// UserCreator создаёт строку пользователя, игнорируя дубликат.
type UserCreator interface {
	CreateIfAbsent(ctx context.Context, userName string) (created bool, err error)
}

// Verifier связывает хранилище хешей и таблицу пользователей.
// Две записи при регистрации не атомарны: строка пользователя без хеша
// считается незавершённой регистрацией и дописывается при следующем входе.
type Verifier struct {
	store Store
	users UserCreator
}

// NewVerifier создаёт Verifier.
func NewVerifier(store Store, users UserCreator) *Verifier {
	return &Verifier{store: store, users: users}
}

// Hash возвращает hex(SHA-256(password)) в нижнем регистре.
func Hash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyOrRegister сверяет пароль с сохранённым хешем. Для неизвестного имени
// создаёт пользователя, сохраняет хеш и возвращает true.
func (v *Verifier) VerifyOrRegister(ctx context.Context, userName, password string) (bool, error) {
	hashed := Hash(password)

	stored, ok, err := v.store.Get(userName)
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}
	if ok {
		return subtle.ConstantTimeCompare([]byte(hashed), []byte(stored)) == 1, nil
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := v.users.CreateIfAbsent(ctx, userName); err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}
	// имя могли зарегистрировать параллельно: побеждает первый записанный хеш
	stored, created, err := v.store.PutIfAbsent(userName, hashed)
	if err != nil {
		return false, fmt.Errorf("store credential: %w", err)
	}
	return created || subtle.ConstantTimeCompare([]byte(hashed), []byte(stored)) == 1, nil
}

// Forget удаляет учётные данные пользователя.
func (v *Verifier) Forget(userName string) error {
	return v.store.Delete(userName)
}
