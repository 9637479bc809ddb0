package utils

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
)

// GoSafe runs fn in a goroutine and recovers from panics so a single bad task cannot take
// down the process.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("recovered from panic: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether ctx is still live.
func ShouldContinue(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	default:
		return true
	}
}

// ToPointer returns a pointer to v.
func ToPointer[T any](v T) *T {
	return &v
}

// ContainsString reports whether s is in list, ignoring case.
func ContainsString(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// SafeText trims s and cuts it to at most max runes.
func SafeText(s string, max int) string {
	s = strings.ToValidUTF8(strings.TrimSpace(s), "")
	r := []rune(s)
	if max > 0 && len(r) > max {
		return string(r[:max])
	}
	return s
}

// Truncate is SafeText with a trailing ellipsis marker when text was cut.
func Truncate(s string, max int) string {
	cut := SafeText(s, max)
	if len([]rune(cut)) < len([]rune(strings.TrimSpace(s))) {
		return fmt.Sprintf("%s...", cut)
	}
	return cut
}
