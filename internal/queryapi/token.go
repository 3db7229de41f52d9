package queryapi

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sandwich-relay/sandwich/internal/kvstore"
)

// tokenPattern matches a three-part proxy token: id.timestamp.signature.
var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9=\-_~]{1,16}\.[A-Za-z0-9=\-_~]{5,8}\.[A-Za-z0-9=\-_~]{20,27}$`)

// base66Alphabet encodes the timestamp segment of a proxy token. Its 66
// symbols are exactly the character class the token pattern allows.
const base66Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789=-_~"

// tokenEpochMS is the epoch the token's middle segment is relative to.
const tokenEpochMS int64 = 1727988244890

const verificationCacheTTL = 3600 * time.Second

var errInvalidToken = errors.New("queryapi: invalid token")

// HashLookup resolves a token's id segment to its stored bcrypt hash. The
// concrete source (an admin/worker token table) lives outside this repo.
type HashLookup interface {
	Hash(ctx context.Context, tokenID string) (hash string, ok bool, err error)
}

// Authenticator verifies bearer tokens on the query API per spec.md §6.3.
type Authenticator struct {
	masterToken string
	hashes      HashLookup
	store       *kvstore.Store
}

// NewAuthenticator builds an Authenticator. masterToken grants full access
// when matched exactly.
func NewAuthenticator(masterToken string, hashes HashLookup, store *kvstore.Store) *Authenticator {
	return &Authenticator{masterToken: masterToken, hashes: hashes, store: store}
}

// Authenticate validates the raw Authorization header value, returning nil
// on success.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return errInvalidToken
	}

	if a.masterToken != "" && subtle.ConstantTimeCompare([]byte(rawToken), []byte(a.masterToken)) == 1 {
		return nil
	}

	if !tokenPattern.MatchString(rawToken) {
		return errInvalidToken
	}

	parts := strings.SplitN(rawToken, ".", 3)
	if len(parts) != 3 {
		return errInvalidToken
	}
	id, tsSegment := parts[0], parts[1]

	if _, err := decodeBase66(tsSegment); err != nil {
		return errInvalidToken
	}

	cacheKey := "token:" + sha256Hex(rawToken)
	if cached, err := a.store.Exists(ctx, cacheKey); err == nil && cached {
		return nil
	}

	hash, ok, err := a.hashes.Hash(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return errInvalidToken
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawToken)); err != nil {
		return errInvalidToken
	}

	_, _ = a.store.ClaimOnce(ctx, cacheKey, verificationCacheTTL)
	return nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// decodeBase66 decodes the token's timestamp segment into a millisecond
// offset from tokenEpochMS. The resulting time is not currently consulted
// by Authenticate beyond format validation; it is exposed for callers that
// want to surface token issuance time.
func decodeBase66(s string) (time.Time, error) {
	var n int64
	for _, c := range s {
		idx := strings.IndexRune(base66Alphabet, c)
		if idx < 0 {
			return time.Time{}, errInvalidToken
		}
		n = n*66 + int64(idx)
	}
	return time.UnixMilli(tokenEpochMS + n), nil
}
