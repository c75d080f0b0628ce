package services

import (
	"net/url"
	"strings"
)

// Content platforms recognized by URL inspection
const (
	PlatformYouTube   = "youtube"
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
	PlatformTwitter   = "twitter"
	PlatformWeb       = "web"
)

// DetectPlatform classifies a content URL by its host. Unrecognized or
// unparseable URLs fall back to the generic web platform.
func DetectPlatform(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return PlatformWeb
	}

	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")

	switch {
	case host == "youtu.be" || host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		return PlatformYouTube
	case host == "instagram.com" || strings.HasSuffix(host, ".instagram.com"):
		return PlatformInstagram
	case host == "tiktok.com" || strings.HasSuffix(host, ".tiktok.com"):
		return PlatformTikTok
	case host == "twitter.com" || host == "x.com":
		return PlatformTwitter
	default:
		return PlatformWeb
	}
}
