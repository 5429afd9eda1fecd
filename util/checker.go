package util

import (
	"container/list"
	"strings"

	"github.com/hetianyi/gox"
)

// StringListExists checks if a string list contains the string.
func StringListExists(l *list.List, ele string) bool {
	exists := false
	gox.WalkList(l, func(item interface{}) bool {
		if item.(string) == ele {
			exists = true
			return true
		}
		return false
	})
	return exists
}

// PushUnique appends the non-blank items missing from l.
func PushUnique(l *list.List, items ...string) {
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" && !StringListExists(l, item) {
			l.PushBack(item)
		}
	}
}

// ListToStrings returns the string items of l.
func ListToStrings(l *list.List) []string {
	ret := make([]string, 0, l.Len())
	gox.WalkList(l, func(item interface{}) bool {
		ret = append(ret, item.(string))
		return false
	})
	return ret
}
