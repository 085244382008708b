package account

import (
	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt cost used for new password hashes.
const hashCost = bcrypt.DefaultCost

// SetPassword hashes plain and stores it on the account.
func (a *Account) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
//
// When the stored hash was produced with an outdated cost, the password is
// rehashed in place; callers should persist the account afterwards. The
// second return reports whether the hash changed.
func (a *Account) CheckPassword(plain string) (ok bool, rehashed bool) {
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plain)) != nil {
		return false, false
	}
	cost, err := bcrypt.Cost([]byte(a.PasswordHash))
	if err == nil && cost < hashCost {
		if err := a.SetPassword(plain); err == nil {
			return true, true
		}
	}
	return true, false
}
