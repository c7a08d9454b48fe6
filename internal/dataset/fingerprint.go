package dataset

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// Fingerprint hashes column names, kinds and rendered cells in order. Two
// tables with equal fingerprints are, for logging purposes, the same table;
// the CLI logs input and output fingerprints so reruns can be compared.
func (t *Table) Fingerprint() uint64 {
	h := xxh3.New()
	var sep = []byte{0x1f}
	for _, c := range t.cols {
		_, _ = h.WriteString(c.Name)
		_, _ = h.Write(sep)
		for _, v := range c.Values {
			_, _ = h.Write([]byte{byte(v.kind)})
			_, _ = h.WriteString(v.String())
			_, _ = h.Write(sep)
		}
		_, _ = h.Write([]byte{0x1e})
	}
	return h.Sum64()
}

// FingerprintHex is Fingerprint rendered as 16 hex digits.
func (t *Table) FingerprintHex() string { return fmt.Sprintf("%016x", t.Fingerprint()) }
