package store

import "time"

// Prune returns the records that survive a save and the ids that were dropped.
// Records without markers and overlays always go. Records with content but no
// associated document go once lastAccessed is older than window.
func Prune(records []MapRecord, now time.Time, window time.Duration) (kept []MapRecord, dropped []string) {
	if window <= 0 {
		window = DefaultPruneWindow
	}
	cutoff := now.UnixMilli() - window.Milliseconds()
	for _, record := range records {
		switch {
		case record.Empty():
			dropped = append(dropped, record.ID)
		case len(record.Files) == 0 && record.LastAccessed < cutoff:
			dropped = append(dropped, record.ID)
		default:
			kept = append(kept, record)
		}
	}
	return kept, dropped
}
