package bridge

import (
	"bytes"
	"strings"

	"github.com/hetianyi/gofdfs/common"
)

// PackMetadata joins name/value pairs with the field separator and
// records with the record separator.
func PackMetadata(metaList []common.MetaData) []byte {
	var buff bytes.Buffer
	for i, m := range metaList {
		if i > 0 {
			buff.WriteString(common.FDFS_RECORD_SEPARATOR)
		}
		buff.WriteString(m.Name)
		buff.WriteString(common.FDFS_FIELD_SEPARATOR)
		buff.WriteString(m.Value)
	}
	return buff.Bytes()
}

// SplitMetadata is the inverse of PackMetadata. An empty buffer yields
// an empty list.
func SplitMetadata(buff []byte) []common.MetaData {
	if len(buff) == 0 {
		return []common.MetaData{}
	}
	rows := strings.Split(string(buff), common.FDFS_RECORD_SEPARATOR)
	ret := make([]common.MetaData, len(rows))
	for i, row := range rows {
		cols := strings.SplitN(row, common.FDFS_FIELD_SEPARATOR, 2)
		ret[i].Name = cols[0]
		if len(cols) == 2 {
			ret[i].Value = cols[1]
		}
	}
	return ret
}
