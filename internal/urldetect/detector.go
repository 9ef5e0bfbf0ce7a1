// Package urldetect classifies user-submitted URLs into platform, content
// type and processing target. Classification is pure: no network calls, no
// state, and every failure mode is represented in the returned value.
package urldetect

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/reelforge/ingest-worker/api/types"
)

// Processing endpoints routed to by classification. YouTube keeps a real
// endpoint even though it is not yet supported end to end; the support
// flag, not the endpoint, gates processing.
const (
	EndpointTikTokTranscribe = "/api/video/transcribe"
	EndpointInstagramMedia   = "/api/video/instagram"
	EndpointYouTube          = "/api/video/youtube"
	EndpointWebContent       = "/api/content/web"
)

var (
	tiktokVideoPattern   = regexp.MustCompile(`/video/(\d+)`)
	tiktokEmbedPattern   = regexp.MustCompile(`/embed/(?:v2/)?(\d+)`)
	tiktokShortVPattern  = regexp.MustCompile(`^/v/(\d+)`)
	tiktokUserPattern    = regexp.MustCompile(`^/(?:user|usr)/([A-Za-z0-9._\-]+)`)
	tiktokShortTPattern  = regexp.MustCompile(`^/t/([A-Za-z0-9]+)`)
	instagramIDPattern   = regexp.MustCompile(`/(?:p|reel|reels|tv)/([A-Za-z0-9_\-]+)`)
	youtubeShortsPattern = regexp.MustCompile(`^/shorts/([A-Za-z0-9_\-]+)`)
	youtubeLivePattern   = regexp.MustCompile(`^/live/([A-Za-z0-9_\-]+)`)
	youtubeEmbedPattern  = regexp.MustCompile(`^/embed/([A-Za-z0-9_\-]+)`)
)

// Classify determines the platform, sub-type, extracted ID and support
// status of a raw URL string. It never panics; internal failures are folded
// into an unknown classification.
func Classify(input string) (c types.URLClassification) {
	defer func() {
		if r := recover(); r != nil {
			c = unknownResult(input, fmt.Sprintf("URL classification failed: %v", r))
		}
	}()

	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return unknownResult(trimmed, "Invalid/empty URL provided")
	}

	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return unknownResult(trimmed, "Invalid URL format")
	}

	host := strings.ToLower(u.Hostname())

	switch {
	case isTikTokHost(host):
		return classifyTikTok(trimmed, u)
	case isInstagramHost(host):
		return classifyInstagram(trimmed, u)
	case isYouTubeHost(host):
		return classifyYouTube(trimmed, u, host)
	case strings.Contains(host, "."):
		return types.URLClassification{
			Platform:       types.PlatformWeb,
			ContentType:    "webpage",
			TargetEndpoint: EndpointWebContent,
			SourceURL:      trimmed,
			Domain:         host,
			IsSupported:    false,
			ErrorMessage:   "Generic web content processing is coming soon",
		}
	default:
		return unknownResult(trimmed, "URL format not recognized. Supported platforms: TikTok and Instagram.")
	}
}

func unknownResult(src, msg string) types.URLClassification {
	return types.URLClassification{
		Platform:     types.PlatformUnknown,
		ContentType:  "unknown",
		SourceURL:    src,
		IsSupported:  false,
		ErrorMessage: msg,
	}
}

func isTikTokHost(host string) bool {
	return host == "tiktok.com" || strings.HasSuffix(host, ".tiktok.com")
}

func isInstagramHost(host string) bool {
	return host == "instagram.com" || strings.HasSuffix(host, ".instagram.com") || host == "instagr.am"
}

func isYouTubeHost(host string) bool {
	return host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") || host == "youtu.be"
}

// Every recognized TikTok URL is treated as a video; profile pages are rare
// enough in practice that the reference behavior never special-cased them.
func classifyTikTok(src string, u *url.URL) types.URLClassification {
	return types.URLClassification{
		Platform:       types.PlatformTikTok,
		ContentType:    "video",
		TargetEndpoint: EndpointTikTokTranscribe,
		SourceURL:      src,
		ExtractedID:    extractTikTokID(u),
		IsSupported:    true,
	}
}

// extractTikTokID tries the known ID carriers in order: canonical /video/
// paths, shareId query params, embed and legacy short paths, user paths,
// then short-link tokens from vm/vt hosts or /t/ paths.
func extractTikTokID(u *url.URL) string {
	if m := tiktokVideoPattern.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	if id := u.Query().Get("shareId"); id != "" {
		return id
	}
	for _, p := range []*regexp.Regexp{tiktokEmbedPattern, tiktokShortVPattern, tiktokUserPattern, tiktokShortTPattern} {
		if m := p.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
	}
	host := strings.ToLower(u.Hostname())
	if host == "vm.tiktok.com" || host == "vt.tiktok.com" {
		if seg := firstPathSegment(u.Path); seg != "" {
			return seg
		}
	}
	return ""
}

func classifyInstagram(src string, u *url.URL) types.URLClassification {
	subtype := instagramSubtype(u.Path)

	c := types.URLClassification{
		Platform:    types.PlatformInstagram,
		ContentType: subtype,
		SourceURL:   src,
	}
	if m := instagramIDPattern.FindStringSubmatch(u.Path); m != nil {
		c.ExtractedID = m[1]
	}

	switch subtype {
	case "reel", "post":
		c.TargetEndpoint = EndpointInstagramMedia
		c.IsSupported = true
	default:
		c.ErrorMessage = fmt.Sprintf(
			"Instagram %s URLs are not currently supported. Only reels and posts can be processed.", subtype)
	}
	return c
}

func instagramSubtype(path string) string {
	switch strings.ToLower(firstPathSegment(path)) {
	case "reel", "reels":
		return "reel"
	case "p":
		return "post"
	case "stories":
		return "story"
	case "tv":
		return "tv"
	default:
		return "profile"
	}
}

func classifyYouTube(src string, u *url.URL, host string) types.URLClassification {
	subtype, id := youtubeSubtypeAndID(u, host)
	return types.URLClassification{
		Platform:       types.PlatformYouTube,
		ContentType:    subtype,
		TargetEndpoint: EndpointYouTube,
		SourceURL:      src,
		ExtractedID:    id,
		IsSupported:    false,
		ErrorMessage:   "YouTube processing is coming soon",
	}
}

func youtubeSubtypeAndID(u *url.URL, host string) (string, string) {
	if host == "youtu.be" {
		return "video", firstPathSegment(u.Path)
	}
	if m := youtubeShortsPattern.FindStringSubmatch(u.Path); m != nil {
		return "shorts", m[1]
	}
	if m := youtubeLivePattern.FindStringSubmatch(u.Path); m != nil {
		return "live", m[1]
	}

	first := strings.ToLower(firstPathSegment(u.Path))
	switch {
	case first == "playlist":
		return "playlist", u.Query().Get("list")
	case first == "channel" || first == "c" || first == "user" || strings.HasPrefix(first, "@"):
		return "channel", ""
	}

	if id := u.Query().Get("v"); id != "" {
		return "video", id
	}
	if m := youtubeEmbedPattern.FindStringSubmatch(u.Path); m != nil {
		return "video", m[1]
	}
	return "video", ""
}

func firstPathSegment(path string) string {
	seg := strings.Trim(path, "/")
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	return seg
}
