package cache

import (
	"fmt"
	"strings"
)

// AnalysisKey is case-insensitive so "Rust" and "rust" share a hot entry.
func AnalysisKey(keyword string) string {
	return fmt.Sprintf("analysis:%s", strings.ToLower(strings.TrimSpace(keyword)))
}

func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}
