package util

import (
	"net/url"
	"strings"
)

// IsRedirectSafe validates a post-login redirect target against open
// redirect attacks. Allowed: relative paths starting with "/" (but not
// "//"), and absolute http(s) URLs whose host matches baseURL.
func IsRedirectSafe(redirectURL, baseURL string) bool {
	if redirectURL == "" {
		// Empty redirect falls back to the default target
		return true
	}

	// Header injection
	if strings.ContainsAny(redirectURL, "\r\n") {
		return false
	}

	if strings.HasPrefix(redirectURL, "/") {
		// "//evil.com" is protocol-relative, "/\evil.com" is the backslash
		// variant some browsers normalize to it
		if strings.HasPrefix(redirectURL, "//") || strings.Contains(redirectURL, "\\") {
			return false
		}
		return true
	}

	parsed, err := url.Parse(redirectURL)
	if err != nil {
		return false
	}

	// javascript:, data: and friends
	if parsed.Scheme != "" && parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	if parsed.Host != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return false
		}
		if parsed.Host != base.Host {
			return false
		}
	}

	return true
}
