package api

// Response headers set by listing and export operations.
const (
	headerNextCursor   = "X-Next-Cursor"
	headerRankDisabled = "X-Rank-Disabled"
)

// Cache-Control header values.
const (
	// CacheNoStore keeps note data out of shared caches.
	CacheNoStore = "no-store"
)
