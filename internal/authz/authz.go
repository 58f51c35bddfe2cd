// Package authz implements single-stored-hash delete authorization:
// both Scheme T (random delete token) and Scheme P (client-supplied
// password-derived authenticator) reduce to the same peppered
// SHA-256 hash comparison — a hash step paired with a constant-time
// verify step, with bcrypt swapped for peppered SHA-256 since both
// inputs here already carry enough entropy that a slow KDF buys
// nothing.
package authz

import (
	"crypto/sha256"

	"github.com/LonleySailor/zkpaste/pkg/idgen"
)

// HashDeleteProof computes the stored hash for either scheme: a
// random 32-byte delete token (Scheme T) or a client-supplied
// authenticator (Scheme P). Both are just bytes to this function.
func HashDeleteProof(pepper, proof []byte) []byte {
	h := sha256.New()
	h.Write(pepper)
	h.Write(proof)
	return h.Sum(nil)
}

// VerifyDeleteProof reports whether proof hashes to storedHash under
// pepper, using a constant-time comparison so verification timing
// doesn't leak which prefix bytes matched.
func VerifyDeleteProof(pepper, proof, storedHash []byte) bool {
	computed := HashDeleteProof(pepper, proof)
	return idgen.ConstantTimeEqual(computed, storedHash)
}
