package agent

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// fingerprintSep separates the three fingerprint inputs. The ASCII unit
// separator never appears in prompts, model names, or JSON, so the
// concatenation is unambiguous.
const fingerprintSep = "\x1f"

// Fingerprint derives a stable identity for a (prompt, model, schema)
// agent definition. The schema is canonicalized by JSON marshalling —
// Go marshals map keys in sorted order, so equal schemas always produce
// equal bytes. Any change to prompt text, model name, or schema shape
// changes the digest.
func Fingerprint(prompt, modelID string, schema map[string]any) (string, error) {
	canonical, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("agent: canonicalize schema: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(prompt)))
	h.Write([]byte(fingerprintSep))
	h.Write([]byte(modelID))
	h.Write([]byte(fingerprintSep))
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}
