package models

import "strings"

// SanitizeKeySegment escapes the key delimiter so a client controlled segment
// cannot address another bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// IPKey returns the bucket key for a client IP on a route.
func IPKey(route, ip string) string {
	return "ip:" + SanitizeKeySegment(route) + ":" + SanitizeKeySegment(ip)
}
