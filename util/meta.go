package util

import (
	"errors"
	"strings"

	"github.com/hetianyi/gofdfs/common"
)

// ParseMetaList parses "name=value" items. The value may be empty.
func ParseMetaList(items []string) ([]common.MetaData, error) {
	ret := make([]common.MetaData, 0, len(items))
	for _, item := range items {
		pos := strings.Index(item, "=")
		if pos <= 0 {
			return nil, errors.New("invalid metadata \"" + item + "\", expect name=value")
		}
		ret = append(ret, common.MetaData{Name: item[:pos], Value: item[pos+1:]})
	}
	return ret, nil
}

// FormatMetaList is the inverse of ParseMetaList.
func FormatMetaList(list []common.MetaData) []string {
	ret := make([]string, len(list))
	for i, m := range list {
		ret[i] = m.Name + "=" + m.Value
	}
	return ret
}
