package api

import (
	"bytes"

	"github.com/hetianyi/gofdfs/bridge"
	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gox/logger"
)

// GetMetadata returns the metadata list of a file.
func (c *StorageClient) GetMetadata(group string, filename string) (ret []common.MetaData, err error) {
	op := "get metadata"
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
	if err = send(l.conn, op, common.STORAGE_PROTO_CMD_GET_METADATA, groupAndName(group, filename), 0, nil); err != nil {
		return nil, err
	}
	body, err := recv(l.conn, op, -1)
	if err != nil {
		return nil, err
	}
	return bridge.SplitMetadata(body), nil
}

// SetMetadata sets the metadata of a file. flag is
// STORAGE_SET_METADATA_FLAG_OVERWRITE to replace the whole list or
// STORAGE_SET_METADATA_FLAG_MERGE to update it by name.
func (c *StorageClient) SetMetadata(group string, filename string, metaList []common.MetaData, flag byte) (err error) {
	op := "set metadata"
	if err = checkFile(op, group, filename); err != nil {
		return err
	}
	l, err := c.acquire(op, Updatable, group, filename)
	if err != nil {
		return err
	}
	defer func() {
		c.release(l, err)
	}()
	err = setMetadata(l.conn, op, group, filename, metaList, flag)
	return err
}

func setMetadata(conn *Connection, op string, group string, filename string, metaList []common.MetaData, flag byte) error {
	meta := bridge.PackMetadata(metaList)

	var head bytes.Buffer
	head.Write(bridge.Long2Buff(int64(len(filename))))
	head.Write(bridge.Long2Buff(int64(len(meta))))
	head.WriteByte(flag)
	head.Write(groupAndName(group, filename))
	head.Write(meta)

	logger.Debug(op, " ", group, "/", filename, " on ", conn.RemoteAddr(), ", flag ", string(flag))
	if err := send(conn, op, common.STORAGE_PROTO_CMD_SET_METADATA, head.Bytes(), 0, nil); err != nil {
		return err
	}
	_, err := recv(conn, op, 0)
	return err
}
