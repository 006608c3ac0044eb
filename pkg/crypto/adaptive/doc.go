// Package adaptive provides the AEAD ciphers used to seal feed snapshots.
//
// Two algorithms are supported: AES-256-GCM, preferred where the CPU has
// AES instructions, and ChaCha20-Poly1305 elsewhere. Sealed output is
// nonce||ciphertext||tag, so a Cipher needs no state besides its key.
//
//	c, err := adaptive.NewWithType(key, adaptive.CipherAuto)
//	sealed, err := c.Encrypt(plaintext, aad)
//	plaintext, err := c.Decrypt(sealed, aad)
//
// All Cipher implementations are safe for concurrent use.
package adaptive
