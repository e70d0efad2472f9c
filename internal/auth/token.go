// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"
)

// TokenPrefix marks every token issued by this package. It is the only part
// of the token format that callers may rely on.
const TokenPrefix = "mock-jwt-token-"

const (
	tokenSuffixLen = 9
	base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GenerateToken returns an opaque token of the form
// TokenPrefix + <unix millis of now> + "-" + 9 random base36 characters.
// Tokens carry no signature and collisions are not checked.
func GenerateToken(now time.Time) (string, error) {
	suffix := make([]byte, tokenSuffixLen)
	limit := big.NewInt(int64(len(base36Alphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", oops.Code("AUTH_TOKEN_GENERATION_FAILED").Wrap(err)
		}
		suffix[i] = base36Alphabet[n.Int64()]
	}

	var b strings.Builder
	b.WriteString(TokenPrefix)
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('-')
	b.Write(suffix)
	return b.String(), nil
}

// HasTokenPrefix reports whether token starts with TokenPrefix.
func HasTokenPrefix(token string) bool {
	return strings.HasPrefix(token, TokenPrefix)
}
