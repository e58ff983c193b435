package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"
)

// ErrCorrupted is returned when a stored value cannot be decrypted.
var ErrCorrupted = errors.New("value cannot be decrypted")

// Encrypted encrypts values with a fernet key before handing them to another Store.
type Encrypted struct {
	next Store
	keys []*fernet.Key
}

// NewEncrypted wraps next. key is a base64 encoded fernet key, see GenerateKey.
func NewEncrypted(next Store, key string) (*Encrypted, error) {
	k, err := fernet.DecodeKey(key)
	if err != nil {
		return nil, fmt.Errorf("invalid store key: %w", err)
	}
	return &Encrypted{next: next, keys: []*fernet.Key{k}}, nil
}

// GenerateKey returns a new random fernet key.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", err
	}
	return k.Encode(), nil
}

func (e *Encrypted) Get(ctx context.Context, key string) ([]byte, error) {
	tok, err := e.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	msg := fernet.VerifyAndDecrypt(tok, 0, e.keys)
	if msg == nil {
		return nil, fmt.Errorf("%q: %w", key, ErrCorrupted)
	}
	return msg, nil
}

func (e *Encrypted) Set(ctx context.Context, key string, value []byte) error {
	tok, err := fernet.EncryptAndSign(value, e.keys[0])
	if err != nil {
		return fmt.Errorf("cannot encrypt %q: %w", key, err)
	}
	return e.next.Set(ctx, key, tok)
}
