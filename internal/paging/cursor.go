package paging

import (
	"log"
	"strconv"
	"strings"
)

// ParseCursor decodes an opaque cursor into the id to resume after.
// Nil, blank and malformed cursors all yield ok == false, so a bad cursor
// restarts from the first page instead of failing the request.
func ParseCursor(raw *string) (key int64, ok bool) {
	if raw == nil {
		return 0, false
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return 0, false
	}
	key, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		log.Printf("WARN: paging: ignoring malformed cursor %q: %v", trimmed, err)
		return 0, false
	}
	return key, true
}

// EncodeCursor renders id as a cursor accepted by ParseCursor.
func EncodeCursor(id int64) string {
	return strconv.FormatInt(id, 10)
}
