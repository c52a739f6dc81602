package credential

import (
	"github.com/zalando/go-keyring"

	"github.com/peternagy/mongoauth/internal/mechanism"
)

const keyringService = "mongoauth"

// PasswordFromKeyring looks up a stored password for a username in the OS
// keyring. A missing entry is not an error; it returns "".
func PasswordFromKeyring(username string) (string, error) {
	password, err := keyring.Get(keyringService, username)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	return password, err
}

// StorePassword saves a password in the OS keyring. An empty password
// deletes any existing entry.
func StorePassword(username, password string) error {
	if password == "" {
		err := keyring.Delete(keyringService, username)
		if err == keyring.ErrNotFound {
			return nil
		}
		return err
	}
	return keyring.Set(keyringService, username, password)
}

// FillPasswordFromKeyring returns a bundle whose password field has been
// filled from the OS keyring when the environment left it empty and a
// username is available. Keyring failures are non-fatal: the bundle is
// returned unchanged and validation reports the field as missing.
func FillPasswordFromKeyring(b Bundle) Bundle {
	if b.Has(mechanism.FieldPassword) || !b.Has(mechanism.FieldUsername) {
		return b
	}
	password, err := PasswordFromKeyring(b.Get(mechanism.FieldUsername))
	if err != nil || password == "" {
		return b
	}
	return b.Set(mechanism.FieldPassword, password)
}
