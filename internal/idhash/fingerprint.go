// Package idhash computes deterministic content identifiers.
package idhash

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

// ComputeFileFingerprint returns a deterministic fingerprint of an uploaded
// file's raw bytes: base58-encoded SHA256. Two uploads of the same export
// always produce the same fingerprint, which is how duplicate files within a
// batch are detected.
func ComputeFileFingerprint(content []byte) string {
	hash := sha256.Sum256(content)
	return base58.Encode(hash[:])
}
