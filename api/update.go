package api

import (
	"bytes"
	"strconv"

	"github.com/hetianyi/gofdfs/bridge"
	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gox/file"
	"github.com/hetianyi/gox/logger"
)

// AppendFile appends size bytes written by pusher to an appender file.
func (c *StorageClient) AppendFile(group string, appenderFilename string, size int64, pusher Pusher) (err error) {
	op := "append file"
	if err = checkFile(op, group, appenderFilename); err != nil {
		return err
	}
	if err = checkContent(op, size, pusher); err != nil {
		return err
	}
	l, err := c.acquire(op, Updatable, group, appenderFilename)
	if err != nil {
		return err
	}
	defer func() {
		c.release(l, err)
	}()

	var head bytes.Buffer
	head.Write(bridge.Long2Buff(int64(len(appenderFilename))))
	head.Write(bridge.Long2Buff(size))
	head.WriteString(appenderFilename)

	logger.Debug(op, " ", group, "/", appenderFilename, " on ", l.conn.RemoteAddr(), ", size ", size)
	if err = send(l.conn, op, common.STORAGE_PROTO_CMD_APPEND_FILE, head.Bytes(), size, pusher); err != nil {
		return err
	}
	_, err = recv(l.conn, op, 0)
	return err
}

func (c *StorageClient) AppendBuffer(group string, appenderFilename string, buff []byte) error {
	return c.AppendFile(group, appenderFilename, int64(len(buff)), NewBufferPusher(buff))
}

func (c *StorageClient) AppendLocalFile(group string, appenderFilename string, localFilename string) error {
	fi, err := file.GetFile(localFilename)
	if err != nil {
		return common.NewLocalIOError("open local file", err)
	}
	defer fi.Close()
	info, err := fi.Stat()
	if err != nil {
		return common.NewLocalIOError("open local file", err)
	}
	return c.AppendFile(group, appenderFilename, info.Size(), &StreamPusher{Reader: fi, Size: info.Size()})
}

// ModifyFile overwrites size bytes of an appender file starting at
// fileOffset with the content written by pusher.
func (c *StorageClient) ModifyFile(group string, appenderFilename string, fileOffset int64, size int64, pusher Pusher) (err error) {
	op := "modify file"
	if err = checkFile(op, group, appenderFilename); err != nil {
		return err
	}
	if fileOffset < 0 {
		return common.NewInvalidArgumentError(op, "negative file offset: "+strconv.FormatInt(fileOffset, 10))
	}
	if err = checkContent(op, size, pusher); err != nil {
		return err
	}
	l, err := c.acquire(op, Updatable, group, appenderFilename)
	if err != nil {
		return err
	}
	defer func() {
		c.release(l, err)
	}()

	var head bytes.Buffer
	head.Write(bridge.Long2Buff(int64(len(appenderFilename))))
	head.Write(bridge.Long2Buff(fileOffset))
	head.Write(bridge.Long2Buff(size))
	head.WriteString(appenderFilename)

	logger.Debug(op, " ", group, "/", appenderFilename, " on ", l.conn.RemoteAddr(), ", offset ", fileOffset, ", size ", size)
	if err = send(l.conn, op, common.STORAGE_PROTO_CMD_MODIFY_FILE, head.Bytes(), size, pusher); err != nil {
		return err
	}
	_, err = recv(l.conn, op, 0)
	return err
}

func (c *StorageClient) ModifyBuffer(group string, appenderFilename string, fileOffset int64, buff []byte) error {
	return c.ModifyFile(group, appenderFilename, fileOffset, int64(len(buff)), NewBufferPusher(buff))
}

// TruncateFile truncates an appender file to zero length.
func (c *StorageClient) TruncateFile(group string, appenderFilename string) error {
	return c.TruncateFileSize(group, appenderFilename, 0)
}

// TruncateFileSize truncates an appender file to truncatedSize bytes.
func (c *StorageClient) TruncateFileSize(group string, appenderFilename string, truncatedSize int64) (err error) {
	op := "truncate file"
	if err = checkFile(op, group, appenderFilename); err != nil {
		return err
	}
	if truncatedSize < 0 {
		return common.NewInvalidArgumentError(op, "negative size: "+strconv.FormatInt(truncatedSize, 10))
	}
	l, err := c.acquire(op, Updatable, group, appenderFilename)
	if err != nil {
		return err
	}
	defer func() {
		c.release(l, err)
	}()

	var head bytes.Buffer
	head.Write(bridge.Long2Buff(int64(len(appenderFilename))))
	head.Write(bridge.Long2Buff(truncatedSize))
	head.WriteString(appenderFilename)

	logger.Debug(op, " ", group, "/", appenderFilename, " on ", l.conn.RemoteAddr(), " to ", truncatedSize)
	if err = send(l.conn, op, common.STORAGE_PROTO_CMD_TRUNCATE_FILE, head.Bytes(), 0, nil); err != nil {
		return err
	}
	_, err = recv(l.conn, op, 0)
	return err
}

// DeleteFile deletes a file from its storage node.
func (c *StorageClient) DeleteFile(group string, filename string) (err error) {
	op := "delete file"
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
	err = deleteFile(l.conn, op, group, filename)
	return err
}

func deleteFile(conn *Connection, op string, group string, filename string) error {
	logger.Debug(op, " ", group, "/", filename, " on ", conn.RemoteAddr())
	if err := send(conn, op, common.STORAGE_PROTO_CMD_DELETE_FILE, groupAndName(group, filename), 0, nil); err != nil {
		return err
	}
	_, err := recv(conn, op, 0)
	return err
}
