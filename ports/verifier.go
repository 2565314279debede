package ports

// SignatureVerifier checks wallet addresses and signatures over login nonces
type SignatureVerifier interface {
	ValidateAddress(address string) error
	Verify(address, message, signature string) error
}
