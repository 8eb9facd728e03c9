package resolver

import (
	"strings"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
)

// PlaceholderThumbnail is served when a record has no usable thumbnail.
const PlaceholderThumbnail = "/images/placeholder-thumbnail.svg"

// Bunny Stream exposes an HLS manifest per video; the same path also serves
// progressive MP4 renditions, so the manifest suffix can be swapped directly.
const (
	manifestSuffix = "/playlist.m3u8"
	primaryVariant = "/play_720p.mp4"
)

// mp4Ladder is the fallback order tried by the player when the primary
// rendition fails: 720p first (best startup/quality tradeoff), then down,
// then up, then the original upload.
var mp4Ladder = []string{
	"/play_720p.mp4",
	"/play_480p.mp4",
	"/play_360p.mp4",
	"/play_1080p.mp4",
	"/original",
}

// ResolveVideoURL picks one playable URL for the record, or "" if the record
// has no usable storage pointer. Priority: Bunny stream (manifest rewritten
// to progressive MP4), then Cloudinary (skipping authenticated URLs the
// client cannot sign), then the local file path (refusing streaming-API
// routes, which are not direct media URLs).
func ResolveVideoURL(v *models.Video) string {
	if v == nil {
		return ""
	}

	if v.BunnyStreamURL != "" {
		if strings.HasSuffix(v.BunnyStreamURL, manifestSuffix) {
			return strings.TrimSuffix(v.BunnyStreamURL, manifestSuffix) + primaryVariant
		}
		return v.BunnyStreamURL
	}

	if v.CloudinaryURL != "" && !IsPrivateURL(v.CloudinaryURL) {
		return v.CloudinaryURL
	}

	if v.FilePath != "" && !isStreamingRoute(v.FilePath) {
		return v.FilePath
	}

	return ""
}

// ResolveThumbnailURL never returns "": it falls back to a static
// placeholder when nothing usable is stored.
func ResolveThumbnailURL(v *models.Video) string {
	if v == nil {
		return PlaceholderThumbnail
	}

	if isUsableThumbnail(v.ThumbnailURL) {
		return v.ThumbnailURL
	}

	if v.BunnyThumbnailURL != "" {
		return v.BunnyThumbnailURL
	}

	// Cloudinary derives a poster frame by swapping the video extension.
	if v.CloudinaryURL != "" && !IsPrivateURL(v.CloudinaryURL) {
		if dot := strings.LastIndex(v.CloudinaryURL, "."); dot > strings.LastIndex(v.CloudinaryURL, "/") {
			return v.CloudinaryURL[:dot] + ".jpg"
		}
	}

	return PlaceholderThumbnail
}

// ResolveFallbackURLs expands the record into an ordered list of alternate
// playable URLs: the Bunny MP4 ladder, then the Cloudinary URL, then the raw
// stored stream URL. The result is de-duplicated and never contains a
// manifest, an authenticated URL, or a streaming-API route.
func ResolveFallbackURLs(v *models.Video) []string {
	if v == nil {
		return nil
	}

	var candidates []string

	if v.BunnyStreamURL != "" {
		base := strings.TrimSuffix(v.BunnyStreamURL, manifestSuffix)
		for _, variant := range mp4Ladder {
			candidates = append(candidates, base+variant)
		}
	}

	if v.CloudinaryURL != "" {
		candidates = append(candidates, v.CloudinaryURL)
	}

	if v.BunnyStreamURL != "" {
		candidates = append(candidates, v.BunnyStreamURL)
	}

	if v.FilePath != "" {
		candidates = append(candidates, v.FilePath)
	}

	seen := make(map[string]bool)
	var out []string
	for _, u := range candidates {
		if u == "" || seen[u] {
			continue
		}
		if strings.HasSuffix(u, ".m3u8") || IsPrivateURL(u) || isStreamingRoute(u) {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}

	return out
}

// IsPrivateURL detects Cloudinary delivery types that require a signature
// the feed client cannot produce.
func IsPrivateURL(u string) bool {
	return strings.Contains(u, "/authenticated/") || strings.Contains(u, "/private/")
}

// isStreamingRoute detects server-side streaming endpoints accidentally
// stored in the file-path column. Those need range-request handling by the
// API and must not be handed to a media element as a direct source.
func isStreamingRoute(p string) bool {
	return strings.HasPrefix(p, "/api/") || strings.Contains(p, "/api/videos/")
}

// isUsableThumbnail filters out the junk values that have historically ended
// up in the manual thumbnail column.
func isUsableThumbnail(u string) bool {
	if u == "" || u == "null" {
		return false
	}
	if strings.Contains(u, "/admin") {
		return false
	}
	return true
}
