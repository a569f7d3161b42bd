// internal/app/system/limits/limits.go
package limits

// Request body and field size limits. These prevent memory exhaustion
// from oversized requests and keep stored text fields bounded.
const (
	// MaxJSONBodySize caps every JSON request body.
	MaxJSONBodySize = 64 << 10 // 64 KB

	// MaxMessageLength caps a single GP chat message.
	MaxMessageLength = 2000

	// MaxDescriptionLength caps GP descriptions and reason notes.
	MaxDescriptionLength = 500

	// MaxTalkTopics caps the talk-topic list on creation.
	MaxTalkTopics = 3
)
