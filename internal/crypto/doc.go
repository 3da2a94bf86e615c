// Package crypto exposes the minimal primitives used by openpeer.
//
// Contents
//
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - Hashing and keyed hashing (Hash, HMAC, HMACHex) and HKDF key derivation
//     (DeriveKey)
//   - Random tokens (RandomString, RandomBytes)
//   - Hex and base64 helpers, short public-key fingerprints (Fingerprint)
//
// # Notes
//
// Everything here is a pure function over byte slices. Protocol code treats
// these as black boxes; the algorithms can change without touching callers.
package crypto
