package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// MapRecordUUID keys the persisted record for a map block id.
func MapRecordUUID(mapID string) uuid.UUID {
	return UUID("go-mapblocks:map:" + strings.TrimSpace(mapID))
}

// ImmutableMarkerUUID identifies a marker that was produced from a source
// declaration. The same declaration always yields the same id so re-renders
// replace markers in place instead of duplicating them.
func ImmutableMarkerUUID(mapID, source string, ordinal int) uuid.UUID {
	return UUID("go-mapblocks:immutable_marker:" + strings.TrimSpace(mapID) + ":" + strings.TrimSpace(source) + ":" + strconv.Itoa(ordinal))
}

// OverlayUUID identifies an overlay produced from a source declaration.
func OverlayUUID(mapID, source string, ordinal int) uuid.UUID {
	return UUID("go-mapblocks:overlay:" + strings.TrimSpace(mapID) + ":" + strings.TrimSpace(source) + ":" + strconv.Itoa(ordinal))
}

// MarkerID renders a marker id in the short form stored alongside map data.
func MarkerID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return "ID_" + strings.ReplaceAll(id.String(), "-", "")[:12]
}
