package bridge

import (
	"encoding/base64"
	"strings"

	"github.com/hetianyi/gofdfs/common"
)

// FilenameEncoding is the base64 variant used inside remote filenames.
var FilenameEncoding = base64.URLEncoding.WithPadding('.')

// FilenameAttributes holds the attributes encoded in a remote filename.
type FilenameAttributes struct {
	SourceIp        string
	CreateTimestamp uint32
	SizeFlags       int64 // raw size field, may carry flag bits
	Crc32           uint32
}

// Decodable reports whether the attributes can be trusted without asking
// the storage node. Slave, appender and trunk files must be queried.
func (a *FilenameAttributes) Decodable(filenameLen int) bool {
	if filenameLen > common.TRUNK_LOGIC_FILENAME_LENGTH {
		return false
	}
	if filenameLen > common.NORMAL_LOGIC_FILENAME_LENGTH && a.SizeFlags&common.TRUNK_FILE_MARK_SIZE == 0 {
		return false
	}
	return a.SizeFlags&common.APPENDER_FILE_SIZE == 0
}

// FileSize returns the real file size. A set top bit marks a legacy
// 32 bit size stored in the low bits.
func (a *FilenameAttributes) FileSize() int64 {
	if a.SizeFlags < 0 {
		return a.SizeFlags & 0xFFFFFFFF
	}
	return a.SizeFlags
}

// DecodeFilenameAttributes decodes the base64 attribute block of a
// remote filename.
func DecodeFilenameAttributes(filename string) (*FilenameAttributes, error) {
	if len(filename) < common.NORMAL_LOGIC_FILENAME_LENGTH {
		return nil, common.NewInvalidArgumentError("decode filename", "filename too short: "+filename)
	}
	block := filename[common.FDFS_FILE_PATH_LEN : common.FDFS_FILE_PATH_LEN+common.FDFS_FILENAME_BASE64_LENGTH]
	if pad := len(block) % 4; pad != 0 {
		block += strings.Repeat(".", 4-pad)
	}
	buff, err := FilenameEncoding.DecodeString(block)
	if err != nil || len(buff) < 20 {
		return nil, common.NewInvalidArgumentError("decode filename", "bad attribute block: "+filename)
	}
	return &FilenameAttributes{
		SourceIp:        FormatIPAddress(buff, 0),
		CreateTimestamp: Buff2Int(buff, 4),
		SizeFlags:       Buff2Long(buff, 8),
		Crc32:           Buff2Int(buff, 16),
	}, nil
}

// EncodeFilenameAttributes builds a 27 character attribute block. The storage
// node does this when naming files, it is used here to craft test names.
func EncodeFilenameAttributes(ip [4]byte, createTimestamp uint32, sizeFlags int64, crc32 uint32) string {
	buff := make([]byte, 20)
	copy(buff, ip[:])
	copy(buff[4:], Long2Buff(int64(createTimestamp))[4:])
	copy(buff[8:], Long2Buff(sizeFlags))
	copy(buff[16:], Long2Buff(int64(crc32))[4:])
	return strings.TrimRight(FilenameEncoding.EncodeToString(buff), ".")
}
