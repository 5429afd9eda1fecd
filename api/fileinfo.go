package api

import (
	"github.com/hetianyi/gofdfs/bridge"
	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gox/logger"
)

const queryFileInfoBodyLength = 3*common.FDFS_PROTO_PKG_LEN_SIZE + common.FDFS_IPADDR_SIZE

// GetFileInfo returns the attributes of a file. Attributes of plain files
// are decoded from the filename without asking the storage node, slave,
// appender and trunk files are queried.
func (c *StorageClient) GetFileInfo(group string, filename string) (*common.FileInfo, error) {
	attr, err := bridge.DecodeFilenameAttributes(filename)
	if err != nil {
		return nil, withOp(err, "get file info")
	}
	if !attr.Decodable(len(filename)) {
		return c.QueryFileInfo(group, filename)
	}
	return &common.FileInfo{
		FileSize:        attr.FileSize(),
		CreateTimestamp: attr.CreateTimestamp,
		Crc32:           attr.Crc32,
		SourceIpAddr:    attr.SourceIp,
	}, nil
}

// QueryFileInfo asks the storage node owning the file for its attributes.
func (c *StorageClient) QueryFileInfo(group string, filename string) (ret *common.FileInfo, err error) {
	op := "query file info"
	if err = checkFile(op, group, filename); err != nil {
		return nil, err
	}
	l, err := c.acquire(op, Updatable, group, filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		c.release(l, err)
	}()

	logger.Debug(op, " ", group, "/", filename, " from ", l.conn.RemoteAddr())
	if err = send(l.conn, op, common.STORAGE_PROTO_CMD_QUERY_FILE_INFO, groupAndName(group, filename), 0, nil); err != nil {
		return nil, err
	}
	body, err := recv(l.conn, op, queryFileInfoBodyLength)
	if err != nil {
		return nil, err
	}
	return &common.FileInfo{
		FileSize:        bridge.Buff2Long(body, 0),
		CreateTimestamp: uint32(bridge.Buff2Long(body, common.FDFS_PROTO_PKG_LEN_SIZE)),
		Crc32:           uint32(bridge.Buff2Long(body, 2*common.FDFS_PROTO_PKG_LEN_SIZE)),
		SourceIpAddr:    bridge.UnpackField(body[3*common.FDFS_PROTO_PKG_LEN_SIZE:]),
	}, nil
}
