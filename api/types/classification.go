package types

// Platform identifies the social platform a URL belongs to.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformWeb       Platform = "web"
	PlatformUnknown   Platform = "unknown"
)

// URLClassification is the result of classifying a user-submitted URL.
// It is a value object: classification is pure and produces no side effects.
//
// Exactly one of two shapes holds: a recognized platform with a content type
// (supported or not), or PlatformUnknown with ErrorMessage set. IsSupported
// implies TargetEndpoint is non-empty.
type URLClassification struct {
	Platform       Platform `json:"platform"`
	ContentType    string   `json:"content_type"`
	TargetEndpoint string   `json:"target_endpoint,omitempty"`
	SourceURL      string   `json:"source_url"`
	ExtractedID    string   `json:"extracted_id,omitempty"`
	Domain         string   `json:"domain,omitempty"`
	IsSupported    bool     `json:"is_supported"`
	ErrorMessage   string   `json:"error_message,omitempty"`
}
