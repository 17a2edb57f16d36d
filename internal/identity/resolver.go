// Package identity resolves the email-like identifier attached to every
// remote report.
package identity

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/coocood/freecache"
	"github.com/rs/zerolog"
)

// freecache rejects anything below 512KiB
const cacheSize = 512 * 1024

var cacheKey = []byte("identity")

// Resolver reads the identity file at most once per TTL and falls back to a
// configured default when the file is missing or blank.
type Resolver struct {
	log      zerolog.Logger
	path     string
	fallback string
	ttl      time.Duration
	cache    *freecache.Cache
}

func NewResolver(log zerolog.Logger, path, fallback string, ttl time.Duration) *Resolver {
	return &Resolver{
		log:      log,
		path:     path,
		fallback: fallback,
		ttl:      ttl,
		cache:    freecache.NewCache(cacheSize),
	}
}

// Email returns the current identity. It never fails.
func (r *Resolver) Email() string {
	if v, err := r.cache.Get(cacheKey); err == nil {
		return string(v)
	}

	email, err := readIdentity(r.path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		r.log.Debug().Str("file", r.path).Msg("identity file missing, using default")
		email = r.fallback
	default:
		r.log.Warn().Err(err).Str("file", r.path).Msg("failed to read identity file, using default")
		email = r.fallback
	}
	if email == "" {
		email = r.fallback
	}

	if err := r.cache.Set(cacheKey, []byte(email), ttlSeconds(r.ttl)); err != nil {
		r.log.Debug().Err(err).Msg("failed to cache identity")
	}
	return email
}

// Invalidate drops the cached value so the next Email re-reads the file
func (r *Resolver) Invalidate() {
	r.cache.Del(cacheKey)
}

// readIdentity returns the first non-blank line of path
func readIdentity(path string) (string, error) {
	if path == "" {
		return "", os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	return "", sc.Err()
}

func ttlSeconds(d time.Duration) int {
	s := int(d / time.Second)
	if s < 1 {
		return 1
	}
	return s
}
