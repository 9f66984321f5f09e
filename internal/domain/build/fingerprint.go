package build

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint identifies what one output file was rendered from. Two builds
// that agree on RenderHash produce the same bytes.
type Fingerprint struct {
	OutputHash string
	ConfigHash string
	RenderHash string
}

func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func NewFingerprint(output []byte, configHash string) Fingerprint {
	f := Fingerprint{OutputHash: HashBytes(output), ConfigHash: configHash}
	f.ComputeRenderHash()
	return f
}

func (f *Fingerprint) ComputeRenderHash() {
	h := sha256.New()
	h.Write([]byte(f.OutputHash))
	h.Write([]byte(f.ConfigHash))
	f.RenderHash = hex.EncodeToString(h.Sum(nil))
}
