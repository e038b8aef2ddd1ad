package lens

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs challenge text on behalf of an account.
type Signer interface {
	Sign(message []byte) ([]byte, error)
	Address() string
}

// KeySigner implements Signer over a raw secp256k1 private key using the
// EIP-191 personal-sign digest, which is what the Lens authentication
// endpoint expects.
type KeySigner struct {
	privateKey *ecdsa.PrivateKey
	address    string
}

// NewKeySignerFromHex constructs a signer from a hex encoded private key.
func NewKeySignerFromHex(hexKey string) (*KeySigner, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")
	keyBytes, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode hex key: %w", err)
	}
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("invalid key length: expected 32 bytes, got %d", len(keyBytes))
	}

	privateKey, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	address := crypto.PubkeyToAddress(privateKey.PublicKey).Hex()

	return &KeySigner{
		privateKey: privateKey,
		address:    address,
	}, nil
}

// Sign signs the personal-sign digest of message. The recovery id is
// adjusted to the 27/28 convention wallets use.
func (s *KeySigner) Sign(message []byte) ([]byte, error) {
	digest := accounts.TextHash(message)
	sig, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// Address returns the checksummed account address for this signer.
func (s *KeySigner) Address() string {
	return s.address
}
