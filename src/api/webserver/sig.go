package webserver

import (
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
)

func strip0x(s string) string {
	if len(s) > 1 && s[:2] == "0x" {
		return s[2:]
	}
	return s
}

// verifySignature checks that sigHex is addr's personal-sign signature over
// the nonce text.
func verifySignature(addr, sigHex, nonce string) error {
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid address")
	}

	sigBytes, err := hex.DecodeString(strip0x(sigHex))
	if err != nil {
		log.Printf("Failed to decode signature: %v", err)
		return err
	}
	if len(sigBytes) != 65 {
		return fmt.Errorf("invalid signature length: %d", len(sigBytes))
	}

	// Wallets return the recovery id as 27/28; crypto wants 0/1.
	if sigBytes[64] >= 27 {
		sigBytes[64] -= 27
	}

	digest := accounts.TextHash([]byte(nonce))
	pubKey, err := crypto.SigToPub(digest, sigBytes)
	if err != nil {
		log.Printf("Failed to recover public key: %v", err)
		return err
	}

	recovered := crypto.PubkeyToAddress(*pubKey)
	if !strings.EqualFold(recovered.Hex(), addr) {
		return fmt.Errorf("signature verification failed")
	}

	return nil
}

func issueJWT(addr string, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"addr": addr,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString(secret)
}
