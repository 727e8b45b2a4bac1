package convo

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/kv"
)

const (
	dedupKeyPrefix = "dedup:last_resp:"

	// DefaultDedupTTL applies to literal-text matches.
	DefaultDedupTTL = 15 * time.Second

	// AppLinkDedupTTL applies to the collapsed app-link key: once the
	// download link went out, stay quiet about it for a full minute.
	AppLinkDedupTTL = 60 * time.Second

	// appLinkStaticKey collapses every reply carrying an app store link
	// into one dedup identity, regardless of wording.
	appLinkStaticKey = "STATIC_KEY:APP_LINKS"
)

var appLinkMarkers = []string{"play.google.com", "apps.apple.com"}

// DedupKey picks the dedup key and TTL for a candidate reply. Replies
// containing an app store link share a static key with an extended TTL;
// everything else dedups on the literal text.
func DedupKey(response string) (key string, ttl time.Duration) {
	for _, marker := range appLinkMarkers {
		if strings.Contains(response, marker) {
			return appLinkStaticKey, AppLinkDedupTTL
		}
	}
	return response, DefaultDedupTTL
}

// DedupGuard suppresses sending the same automated reply twice to a
// customer in short succession.
type DedupGuard struct {
	backend kv.Backend
}

func NewDedupGuard(backend kv.Backend) *DedupGuard {
	return &DedupGuard{backend: backend}
}

// IsDuplicate reports whether key matches the fingerprint stored for
// phone. A match does not refresh the stored value; a miss overwrites it
// with the new fingerprint under ttl. Empty keys and backend errors are
// never duplicates.
func (g *DedupGuard) IsDuplicate(ctx context.Context, phone, key string, ttl time.Duration) bool {
	if key == "" {
		return false
	}

	sum := md5.Sum([]byte(key))
	fingerprint := hex.EncodeToString(sum[:])
	storeKey := dedupKeyPrefix + phone

	old, ok, err := g.backend.Get(ctx, storeKey)
	if err != nil {
		slog.Warn("dedup read failed", "phone", phone, "error", err)
		return false
	}
	if ok && old == fingerprint {
		return true
	}

	if err := g.backend.Set(ctx, storeKey, fingerprint, ttl); err != nil {
		slog.Warn("dedup write failed", "phone", phone, "error", err)
	}
	return false
}
