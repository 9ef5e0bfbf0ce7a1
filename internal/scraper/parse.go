package scraper

import (
	"encoding/json"

	"github.com/reelforge/ingest-worker/api/types"
)

// Field names that actors use for the direct media URL, tried in order.
var mediaURLFields = []string{"videoUrl", "video_url", "downloadUrl", "download_url", "videoPlayUrl", "mediaUrl"}

// Actor metric keys normalized to our metric names.
var metricFields = map[string]string{
	"diggCount":      "likes",
	"likesCount":     "likes",
	"commentCount":   "comments",
	"commentsCount":  "comments",
	"shareCount":     "shares",
	"playCount":      "views",
	"videoPlayCount": "views",
}

// resultFromItem maps one actor dataset item onto a ScrapeResult. Actor
// schemas differ per platform, so lookups sweep the known field aliases.
func resultFromItem(platform types.Platform, item map[string]any, raw json.RawMessage) *types.ScrapeResult {
	res := &types.ScrapeResult{
		Platform: platform,
		RawData:  raw,
		Metadata: item,
	}

	res.VideoURL = extractMediaURL(item)
	res.Author = firstString(item, "authorName", "ownerUsername", "author")
	if res.Author == "" {
		res.Author = nestedString(item, "authorMeta", "name")
	}
	res.Title = firstString(item, "title", "text", "caption")
	res.Description = firstString(item, "description", "text", "caption")
	res.ThumbnailURL = firstString(item, "thumbnailUrl", "displayUrl", "coverUrl")
	if res.ThumbnailURL == "" {
		res.ThumbnailURL = nestedString(item, "videoMeta", "coverUrl")
	}
	res.Hashtags = extractHashtags(item)
	res.Metrics = extractMetrics(item)
	return res
}

func extractMediaURL(item map[string]any) string {
	for _, field := range mediaURLFields {
		if s, ok := item[field].(string); ok && s != "" {
			return s
		}
	}
	if s := nestedString(item, "videoMeta", "downloadAddr"); s != "" {
		return s
	}
	if list, ok := item["mediaUrls"].([]any); ok && len(list) > 0 {
		if s, ok := list[0].(string); ok {
			return s
		}
	}
	return ""
}

func extractHashtags(item map[string]any) []string {
	list, ok := item["hashtags"].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, entry := range list {
		switch v := entry.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			if name, ok := v["name"].(string); ok && name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func extractMetrics(item map[string]any) map[string]int64 {
	var out map[string]int64
	for field, name := range metricFields {
		v, ok := item[field].(float64)
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]int64)
		}
		out[name] = int64(v)
	}
	return out
}

func firstString(item map[string]any, fields ...string) string {
	for _, field := range fields {
		if s, ok := item[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func nestedString(item map[string]any, outer, inner string) string {
	nested, ok := item[outer].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := nested[inner].(string)
	return s
}
