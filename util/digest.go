package util

import (
	"encoding/hex"
	"hash"
	"hash/crc32"
	"io"

	"github.com/hetianyi/gox/file"
)

var tablePolynomial = crc32.MakeTable(crc32.IEEE)

// CreateCrc32Hash returns the crc32 hash used by storage servers for
// file signatures.
func CreateCrc32Hash() hash.Hash32 {
	return crc32.New(tablePolynomial)
}

func GetCrc32HashString(h hash.Hash32) string {
	return hex.EncodeToString(h.Sum(nil))
}

// Crc32OfFile returns the crc32 signature of a local file.
func Crc32OfFile(path string) (uint32, error) {
	fi, err := file.GetFile(path)
	if err != nil {
		return 0, err
	}
	defer fi.Close()
	h := CreateCrc32Hash()
	if _, err = io.Copy(h, fi); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}
