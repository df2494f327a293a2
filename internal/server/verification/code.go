package verification

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/dmitrijs2005/signupd/internal/common"
)

// Generator produces one-time verification codes.
type Generator interface {
	Generate() (string, error)
}

// CodeGenerator draws fixed-length decimal codes uniformly from a
// cryptographically secure source. Leading zeros are kept.
type CodeGenerator struct {
	length int
	rand   io.Reader
}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{length: common.CodeLength, rand: rand.Reader}
}

func (g *CodeGenerator) Generate() (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(g.length)), nil)

	n, err := rand.Int(g.rand, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	return fmt.Sprintf("%0*d", g.length, n), nil
}
