// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxRegisterBodySize is the maximum size for registration submissions.
	// A name and a phone number fit in far less than this.
	MaxRegisterBodySize = 64 << 10 // 64 KB
)
