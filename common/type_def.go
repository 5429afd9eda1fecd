package common

import (
	"strings"
	"time"

	"github.com/hetianyi/gox/convert"
)

type Server struct {
	Host string `json:"host" yaml:"host"`
	Port uint16 `json:"port" yaml:"port"`
}

// StorageServer is a storage node together with the group it serves
// and the store path index used when uploading to it.
type StorageServer struct {
	Server
	Group          string `json:"group" yaml:"group"`
	StorePathIndex byte   `json:"storePathIndex" yaml:"storePathIndex"`
}

func (s *Server) ConnectionString() string {
	return s.Host + ":" + convert.Uint16ToStr(s.Port)
}

type ClientConfig struct {
	Storages       []string        `json:"storages" yaml:"storages"`
	ConnectTimeout int             `json:"connectTimeout" yaml:"connectTimeout"` // seconds
	NetworkTimeout int             `json:"networkTimeout" yaml:"networkTimeout"` // seconds
	LogLevel       string          `json:"logLevel" yaml:"logLevel"`
	ParsedStorages []StorageServer `json:"-" yaml:"-"`
}

type GatewayConfig struct {
	ClientConfig `yaml:",inline"`
	BindAddress  string `json:"bindAddress" yaml:"bindAddress"`
	HttpPort     int    `json:"httpPort" yaml:"httpPort"`
}

// MetaData is a single name/value pair attached to a remote file.
type MetaData struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type UploadResult struct {
	Group    string `json:"group"`
	Filename string `json:"filename"`
}

// FileId returns the two-part file id "group/filename".
func (r *UploadResult) FileId() string {
	return r.Group + "/" + r.Filename
}

type FileInfo struct {
	FileSize        int64  `json:"fileSize"`
	CreateTimestamp uint32 `json:"createTimestamp"`
	Crc32           uint32 `json:"crc32"`
	SourceIpAddr    string `json:"sourceIpAddr"`
}

// CreateTime returns the creation timestamp as local time.
func (f *FileInfo) CreateTime() time.Time {
	return time.Unix(int64(f.CreateTimestamp), 0)
}

// SplitFileId splits "group/filename" into its two parts.
// ok is false if either part is empty.
func SplitFileId(fileId string) (group string, filename string, ok bool) {
	pos := strings.Index(fileId, "/")
	if pos <= 0 || pos == len(fileId)-1 {
		return "", "", false
	}
	return fileId[:pos], fileId[pos+1:], true
}
