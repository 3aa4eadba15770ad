package orders

import (
	"crypto/rand"
	"io"
	"strings"
	"time"
)

const (
	// DefaultCodePrefix prefixes order codes when none is configured.
	DefaultCodePrefix = "ORD"

	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeRandLen  = 4
)

// CodeGenerator produces human-readable order codes: {PREFIX}-{YYMMDD}-{rand4}.
type CodeGenerator struct {
	prefix string
	rand   io.Reader
}

// NewCodeGenerator creates a generator. An empty prefix falls back to DefaultCodePrefix.
func NewCodeGenerator(prefix string) *CodeGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultCodePrefix
	}
	return &CodeGenerator{prefix: prefix, rand: rand.Reader}
}

// Generate returns a new code for an order created at now.
func (g *CodeGenerator) Generate(now time.Time) (string, error) {
	buf := make([]byte, codeRandLen)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}

	var sb strings.Builder
	sb.Grow(len(g.prefix) + 13)
	sb.WriteString(g.prefix)
	sb.WriteByte('-')
	sb.WriteString(now.Format("060102"))
	sb.WriteByte('-')
	sb.Write(buf)
	return sb.String(), nil
}
