package stellar

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/ports"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
)

// Verifier checks Ed25519 signatures made by Stellar wallets
type Verifier struct{}

// NewVerifier creates a new signature verifier
func NewVerifier() ports.SignatureVerifier {
	return Verifier{}
}

// ValidateAddress checks that address is a G... account public key with a valid checksum
func (Verifier) ValidateAddress(address string) error {
	if !strkey.IsValidEd25519PublicKey(address) {
		return core.ErrInvalidAddress
	}
	return nil
}

// Verify checks signature over the raw bytes of the hex encoded message
func (v Verifier) Verify(address, message, signature string) error {
	if err := v.ValidateAddress(address); err != nil {
		return err
	}

	kp, err := keypair.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("parsing address: %w", core.ErrInvalidAddress)
	}

	msg, err := hex.DecodeString(message)
	if err != nil || len(msg) == 0 {
		return fmt.Errorf("message is not hex: %w", core.ErrInvalidSignature)
	}

	sig, err := decodeSignature(signature)
	if err != nil {
		return fmt.Errorf("signature is not base64: %w", core.ErrInvalidSignature)
	}

	if err := kp.Verify(msg, sig); err != nil {
		return core.ErrInvalidSignature
	}

	return nil
}

// decodeSignature accepts standard and URL base64, padded or not
func decodeSignature(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}

	var lastErr error
	for _, enc := range encodings {
		sig, err := enc.DecodeString(s)
		if err == nil {
			return sig, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
