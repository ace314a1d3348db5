package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainRequest  = "walletbroker/request/v1"
	DomainSnapshot = "walletbroker/snapshot/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the domain-separated SHA-256 of data as lowercase hex.
func Hash(domain string, data []byte) string {
	return hashWithDomain(domain, data)
}

// Fingerprint returns the canonical JSON of fields and its domain-separated hash.
func Fingerprint(domain string, fields map[string]any) (payload []byte, hash string, err error) {
	payload, err = Marshal(fields)
	if err != nil {
		return nil, "", fmt.Errorf("fingerprint: %w", err)
	}
	return payload, hashWithDomain(domain, payload), nil
}
