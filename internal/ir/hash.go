package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTable = "featsynth/table/v1"
	DomainPlan  = "featsynth/plan/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Unit and record separators keep cell and row boundaries unambiguous.
const (
	sepUnit   = 0x1f
	sepRecord = 0x1e
)

// Fingerprint returns a content hash of the table's schema and rows.
//
// Two tables have the same fingerprint iff they have the same column names,
// column types, key column, and the same cell values in the same row order.
// The table name is excluded so a renamed copy fingerprints the same.
func Fingerprint(t *Table) string {
	var buf []byte
	buf = append(buf, t.Key...)
	buf = append(buf, sepRecord)
	for _, c := range t.Schema {
		buf = append(buf, c.Name...)
		buf = append(buf, sepUnit)
		buf = append(buf, c.Type...)
		buf = append(buf, sepUnit)
	}
	for _, r := range t.rows {
		buf = append(buf, sepRecord)
		for _, c := range t.Schema {
			buf = append(buf, CanonicalKey(r.Get(c.Name))...)
			buf = append(buf, sepUnit)
		}
	}
	return hashWithDomain(DomainTable, buf)
}

// PlanHash returns a content hash of a plan's canonical source bytes.
func PlanHash(source []byte) string {
	return hashWithDomain(DomainPlan, source)
}
