package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RandomSource returns a uniformly distributed integer in [0, n).
type RandomSource interface {
	Intn(n int) (int, error)
}

type cryptoSource struct{}

// NewCryptoSource returns a RandomSource backed by crypto/rand.
func NewCryptoSource() RandomSource {
	return cryptoSource{}
}

func (cryptoSource) Intn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// Shuffle permutes ids in place with Fisher–Yates. Every ordering is equally
// likely as long as src is uniform.
func Shuffle(src RandomSource, ids []string) error {
	for i := len(ids) - 1; i > 0; i-- {
		j, err := src.Intn(i + 1)
		if err != nil {
			return fmt.Errorf("draw random index: %w", err)
		}
		ids[i], ids[j] = ids[j], ids[i]
	}
	return nil
}

// pickWinners shuffles a copy of pool and splits it into the first k and the rest.
func pickWinners(src RandomSource, pool []string, k int) (winners, losers []string, err error) {
	ids := append([]string(nil), pool...)
	if err := Shuffle(src, ids); err != nil {
		return nil, nil, err
	}
	k = min(k, len(ids))
	return ids[:k], ids[k:], nil
}
