package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ExtractDomain extracts the host from a URL, without port
func ExtractDomain(urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %v", err)
	}

	if parsedURL.Host == "" {
		return "", fmt.Errorf("no host in URL: %s", urlStr)
	}

	return parsedURL.Hostname(), nil
}

// IsValidURL checks that a string is an absolute http(s) URL
func IsValidURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	return (scheme == "http" || scheme == "https") && parsedURL.Host != ""
}

// SanitizeURL trims the URL and adds a scheme when missing
func SanitizeURL(urlStr string) string {
	urlStr = strings.TrimSpace(urlStr)

	if !strings.HasPrefix(urlStr, "http://") && !strings.HasPrefix(urlStr, "https://") {
		urlStr = "https://" + urlStr
	}

	return strings.TrimRight(urlStr, "/")
}
