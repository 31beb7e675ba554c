package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// DefaultKeypairPath is where the Solana CLI stores the default wallet.
const DefaultKeypairPath = "~/.config/solana/id.json"

// KeypairFromBytes converts the 64 byte secret key layout used by the
// Solana CLI into an ed25519 private key, verifying that the embedded public
// key matches the seed.
func KeypairFromBytes(b []byte) (ed25519.PrivateKey, error) {
	if len(b) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid keypair length: %d", len(b))
	}

	key := ed25519.NewKeyFromSeed(b[:ed25519.SeedSize])
	if !key.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(b[ed25519.SeedSize:])) {
		return nil, errors.New("keypair public key does not match secret")
	}

	return key, nil
}

// KeypairFromBase58 parses a base58 encoded 64 byte secret key.
func KeypairFromBase58(s string) (ed25519.PrivateKey, error) {
	b, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrap(err, "invalid base58 keypair")
	}
	return KeypairFromBytes(b)
}

// LoadKeypairFile reads a keypair stored as a JSON byte array, as written by
// `solana-keygen new`. A leading ~ is expanded to the user's home directory.
func LoadKeypairFile(path string) (ed25519.PrivateKey, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve home directory")
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keypair file %s", path)
	}

	var b []byte
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return nil, errors.Wrapf(err, "invalid keypair file %s", path)
	}
	for _, v := range ints {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("invalid byte value %d in keypair file", v)
		}
		b = append(b, byte(v))
	}

	return KeypairFromBytes(b)
}
