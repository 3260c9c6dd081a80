// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON and webhook endpoints.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxThreadBody caps thread and reply submissions. Text is at most 1000
	// characters, so 16 KB leaves room for multibyte text and JSON escaping.
	MaxThreadBody = 16 << 10

	// MaxProfileBody caps the JSON profile form and the non-file parts of
	// a multipart profile submission.
	MaxProfileBody = 16 << 10

	// MaxWebhookBody caps a single organization webhook delivery.
	MaxWebhookBody = 1 << 20 // 1 MB
)
