package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/buildmcp/buildmcp/internal/model"
)

// fingerprintInput is the canonical form of requirements: client names are
// de-duplicated and the free-text fields trimmed, so cosmetic differences
// map to the same key.
type fingerprintInput struct {
	Description string   `json:"description"`
	Clients     []string `json:"clients"`
	Auth        string   `json:"auth"`
	Deployment  string   `json:"deployment"`
	Language    string   `json:"language"`
}

// Fingerprint returns the hex sha256 of the canonical JSON form of req with
// its language resolved against def.
func Fingerprint(req model.ServerRequirements, def model.Language) string {
	in := fingerprintInput{
		Description: strings.TrimSpace(req.Description),
		Clients:     req.Clients(),
		Auth:        strings.TrimSpace(req.AuthRequirements),
		Deployment:  string(req.Deployment()),
		Language:    req.ResolveLanguage(def).String(),
	}
	// Marshalling a struct of strings cannot fail.
	data, _ := json.Marshal(in)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// PackageCache stores serialized packages in a Cache.
type PackageCache struct {
	backend Cache
	ttl     time.Duration
}

// NewPackageCache wraps backend. A zero ttl uses the backend default.
func NewPackageCache(backend Cache, ttl time.Duration) *PackageCache {
	return &PackageCache{backend: backend, ttl: ttl}
}

// Get returns the cached package for fingerprint, or ErrCacheMiss.
func (c *PackageCache) Get(ctx context.Context, fingerprint string) (*model.ServerPackage, error) {
	data, err := c.backend.Get(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	var pkg model.ServerPackage
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("decode cached package: %w", err)
	}
	return &pkg, nil
}

// Put stores pkg under fingerprint.
func (c *PackageCache) Put(ctx context.Context, fingerprint string, pkg *model.ServerPackage) error {
	data, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("encode package: %w", err)
	}
	return c.backend.Set(ctx, fingerprint, data, c.ttl)
}

// Close closes the backend.
func (c *PackageCache) Close() error {
	return c.backend.Close()
}
