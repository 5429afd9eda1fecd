// Package apitest provides an in-memory storage node speaking the storage
// protocol, for tests of code built on the api package.
package apitest

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"net"
	"path"
	"sort"
	"sync"

	"github.com/hetianyi/gofdfs/api"
	"github.com/hetianyi/gofdfs/bridge"
	"github.com/hetianyi/gofdfs/common"
)

const (
	Group     = "group1"
	Timestamp = 1577836800
)

// StorageNode is an in-memory storage node serving files of Group.
type StorageNode struct {
	lock          sync.Mutex
	files         map[string][]byte
	meta          map[string][]byte
	cmds          []byte
	status        map[byte]byte // forced reply status per command
	hangup        map[byte]bool // close the connection instead of replying
	shortDownload int           // if > 0, only that many body bytes of a download are sent
	seq           int
}

func NewStorageNode() *StorageNode {
	return &StorageNode{
		files:  make(map[string][]byte),
		meta:   make(map[string][]byte),
		status: make(map[byte]byte),
		hangup: make(map[byte]bool),
	}
}

// SetStatus makes the node answer cmd with status and an empty body.
func (s *StorageNode) SetStatus(cmd byte, status byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status[cmd] = status
}

// SetHangup makes the node close the connection on receiving cmd.
func (s *StorageNode) SetHangup(cmd byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.hangup[cmd] = true
}

// SetShortDownload truncates download bodies to n bytes and then closes
// the connection.
func (s *StorageNode) SetShortDownload(n int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.shortDownload = n
}

// CountCmd returns how many times cmd was received.
func (s *StorageNode) CountCmd(cmd byte) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	n := 0
	for _, c := range s.cmds {
		if c == cmd {
			n++
		}
	}
	return n
}

func (s *StorageNode) FileCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.files)
}

func (s *StorageNode) File(name string) ([]byte, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	content, ok := s.files[name]
	return content, ok
}

// Filenames returns the names of all stored files in sorted order.
func (s *StorageNode) Filenames() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	ret := make([]string, 0, len(s.files))
	for name := range s.files {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Serve handles requests on conn until either side closes it.
func (s *StorageNode) Serve(conn net.Conn) {
	defer conn.Close()
	for {
		header := make([]byte, common.FDFS_PROTO_HEADER_LEN)
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		cmd := header[common.FDFS_PROTO_PKG_LEN_SIZE]
		body := make([]byte, bridge.Buff2Long(header, 0))
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}

		s.lock.Lock()
		s.cmds = append(s.cmds, cmd)
		hangup := s.hangup[cmd]
		status, forced := s.status[cmd]
		short := s.shortDownload
		s.lock.Unlock()

		if hangup {
			return
		}
		var resp []byte
		if !forced {
			status, resp = s.handle(cmd, body)
		}
		if status != 0 {
			resp = nil
		}
		if _, err := conn.Write(bridge.PackHeader(common.STORAGE_PROTO_CMD_RESP, int64(len(resp)), status)); err != nil {
			return
		}
		if cmd == common.STORAGE_PROTO_CMD_DOWNLOAD_FILE && short > 0 && short < len(resp) {
			conn.Write(resp[:short])
			return
		}
		if len(resp) > 0 {
			if _, err := conn.Write(resp); err != nil {
				return
			}
		}
	}
}

func (s *StorageNode) newName(sizeFlags int64, content []byte, ext string) string {
	s.seq++
	block := bridge.EncodeFilenameAttributes([4]byte{127, 0, 0, 1}, Timestamp, sizeFlags, crc32.ChecksumIEEE(content))
	return fmt.Sprintf("M00/00/00/%s%03d.%s", block, s.seq, ext)
}

func uploadResponse(name string) []byte {
	return append(bridge.PackField(Group, common.FDFS_GROUP_NAME_MAX_LEN), name...)
}

func (s *StorageNode) handle(cmd byte, body []byte) (byte, []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch cmd {
	case common.FDFS_PROTO_CMD_ACTIVE_TEST:
		return 0, nil

	case common.STORAGE_PROTO_CMD_UPLOAD_FILE, common.STORAGE_PROTO_CMD_UPLOAD_APPENDER_FILE:
		size := bridge.Buff2Long(body, 1)
		ext := bridge.UnpackField(body[9:15])
		content := body[15:]
		if int64(len(content)) != size {
			return common.ERR_NO_EINVAL, nil
		}
		flags := size
		if cmd == common.STORAGE_PROTO_CMD_UPLOAD_APPENDER_FILE {
			flags |= common.APPENDER_FILE_SIZE
		}
		name := s.newName(flags, content, ext)
		s.files[name] = content
		return 0, uploadResponse(name)

	case common.STORAGE_PROTO_CMD_UPLOAD_SLAVE_FILE:
		masterLen := bridge.Buff2Long(body, 0)
		size := bridge.Buff2Long(body, 8)
		prefix := bridge.UnpackField(body[16:32])
		ext := bridge.UnpackField(body[32:38])
		master := string(body[38 : 38+masterLen])
		content := body[38+masterLen:]
		if int64(len(content)) != size {
			return common.ERR_NO_EINVAL, nil
		}
		if _, ok := s.files[master]; !ok {
			return common.ERR_NO_ENOENT, nil
		}
		name := master[:len(master)-len(path.Ext(master))] + prefix + "." + ext
		s.files[name] = content
		return 0, uploadResponse(name)

	case common.STORAGE_PROTO_CMD_DELETE_FILE:
		name, ok := s.lookup(body)
		if !ok {
			return common.ERR_NO_ENOENT, nil
		}
		delete(s.files, name)
		delete(s.meta, name)
		return 0, nil

	case common.STORAGE_PROTO_CMD_QUERY_FILE_INFO:
		name, ok := s.lookup(body)
		if !ok {
			return common.ERR_NO_ENOENT, nil
		}
		content := s.files[name]
		var resp bytes.Buffer
		resp.Write(bridge.Long2Buff(int64(len(content))))
		resp.Write(bridge.Long2Buff(Timestamp))
		resp.Write(bridge.Long2Buff(int64(crc32.ChecksumIEEE(content))))
		resp.Write(bridge.PackField("127.0.0.1", common.FDFS_IPADDR_SIZE))
		return 0, resp.Bytes()

	case common.STORAGE_PROTO_CMD_DOWNLOAD_FILE:
		offset := bridge.Buff2Long(body, 0)
		length := bridge.Buff2Long(body, 8)
		name, ok := s.lookup(body[16:])
		if !ok {
			return common.ERR_NO_ENOENT, nil
		}
		content := s.files[name]
		if offset > int64(len(content)) {
			return common.ERR_NO_EINVAL, nil
		}
		end := int64(len(content))
		if length > 0 && offset+length < end {
			end = offset + length
		}
		return 0, content[offset:end]

	case common.STORAGE_PROTO_CMD_GET_METADATA:
		name, ok := s.lookup(body)
		if !ok {
			return common.ERR_NO_ENOENT, nil
		}
		return 0, s.meta[name]

	case common.STORAGE_PROTO_CMD_SET_METADATA:
		nameLen := bridge.Buff2Long(body, 0)
		metaLen := bridge.Buff2Long(body, 8)
		flag := body[16]
		name, ok := s.lookup(body[17 : 17+common.FDFS_GROUP_NAME_MAX_LEN+nameLen])
		if !ok {
			return common.ERR_NO_ENOENT, nil
		}
		meta := body[17+common.FDFS_GROUP_NAME_MAX_LEN+nameLen:]
		if int64(len(meta)) != metaLen {
			return common.ERR_NO_EINVAL, nil
		}
		if flag == common.STORAGE_SET_METADATA_FLAG_MERGE {
			meta = mergeMetadata(s.meta[name], meta)
		}
		s.meta[name] = meta
		return 0, nil

	case common.STORAGE_PROTO_CMD_APPEND_FILE:
		nameLen := bridge.Buff2Long(body, 0)
		name := string(body[16 : 16+nameLen])
		if _, ok := s.files[name]; !ok {
			return common.ERR_NO_ENOENT, nil
		}
		s.files[name] = append(s.files[name], body[16+nameLen:]...)
		return 0, nil

	case common.STORAGE_PROTO_CMD_MODIFY_FILE:
		nameLen := bridge.Buff2Long(body, 0)
		offset := bridge.Buff2Long(body, 8)
		name := string(body[24 : 24+nameLen])
		content, ok := s.files[name]
		if !ok {
			return common.ERR_NO_ENOENT, nil
		}
		data := body[24+nameLen:]
		if offset > int64(len(content)) {
			return common.ERR_NO_EINVAL, nil
		}
		for int64(len(content)) < offset+int64(len(data)) {
			content = append(content, 0)
		}
		copy(content[offset:], data)
		s.files[name] = content
		return 0, nil

	case common.STORAGE_PROTO_CMD_TRUNCATE_FILE:
		nameLen := bridge.Buff2Long(body, 0)
		size := bridge.Buff2Long(body, 8)
		name := string(body[16 : 16+nameLen])
		content, ok := s.files[name]
		if !ok {
			return common.ERR_NO_ENOENT, nil
		}
		if size < int64(len(content)) {
			s.files[name] = content[:size]
		}
		return 0, nil
	}
	return common.ERR_NO_EINVAL, nil
}

// lookup parses [group][filename].
func (s *StorageNode) lookup(body []byte) (string, bool) {
	if bridge.UnpackField(body[:common.FDFS_GROUP_NAME_MAX_LEN]) != Group {
		return "", false
	}
	name := string(body[common.FDFS_GROUP_NAME_MAX_LEN:])
	_, ok := s.files[name]
	return name, ok
}

func mergeMetadata(old []byte, update []byte) []byte {
	list := bridge.SplitMetadata(old)
	for _, m := range bridge.SplitMetadata(update) {
		found := false
		for i := range list {
			if list[i].Name == m.Name {
				list[i].Value = m.Value
				found = true
			}
		}
		if !found {
			list = append(list, m)
		}
	}
	return bridge.PackMetadata(list)
}

// Tracker hands out pipe connections to a StorageNode and counts the
// connections requested per kind: "store", "fetch" and "update".
type Tracker struct {
	node  *StorageNode
	lock  sync.Mutex
	calls map[string]int
	err   error
}

func NewTracker(node *StorageNode) *Tracker {
	return &Tracker{
		node:  node,
		calls: make(map[string]int),
	}
}

// SetError makes every later connection request fail with err.
func (t *Tracker) SetError(err error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.err = err
}

func (t *Tracker) connect(kind string) (*api.Connection, error) {
	t.lock.Lock()
	t.calls[kind]++
	err := t.err
	t.lock.Unlock()
	if err != nil {
		return nil, err
	}
	return PipeConnection(t.node), nil
}

func (t *Tracker) Count(kind string) int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.calls[kind]
}

func (t *Tracker) Total() int {
	return t.Count("store") + t.Count("fetch") + t.Count("update")
}

func (t *Tracker) GetStoreConnection(group string) (*api.Connection, error) {
	return t.connect("store")
}

func (t *Tracker) GetFetchConnection(group string, filename string) (*api.Connection, error) {
	return t.connect("fetch")
}

func (t *Tracker) GetUpdateConnection(group string, filename string) (*api.Connection, error) {
	return t.connect("update")
}

// PipeConnection returns a connection served by node over net.Pipe.
func PipeConnection(node *StorageNode) *api.Connection {
	client, server := net.Pipe()
	go node.Serve(server)
	return api.NewConnection(client, 0)
}
