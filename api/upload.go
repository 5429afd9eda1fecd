package api

import (
	"bytes"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hetianyi/gofdfs/bridge"
	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gox/file"
	"github.com/hetianyi/gox/logger"
)

// UploadFile uploads size bytes written by pusher as a new file.
// group may be empty to let the tracker choose one. If metaList is not
// empty it is set on the new file, a failure there deletes the file again.
func (c *StorageClient) UploadFile(group string, size int64, pusher Pusher, extName string, metaList []common.MetaData) (*common.UploadResult, error) {
	return c.doUpload("upload file", common.STORAGE_PROTO_CMD_UPLOAD_FILE, group, "", "", extName, size, pusher, metaList)
}

// UploadBuffer uploads the whole buffer as a new file.
func (c *StorageClient) UploadBuffer(group string, buff []byte, extName string, metaList []common.MetaData) (*common.UploadResult, error) {
	return c.UploadFile(group, int64(len(buff)), NewBufferPusher(buff), extName, metaList)
}

// UploadBufferRange uploads buff[offset:offset+length] as a new file.
func (c *StorageClient) UploadBufferRange(group string, buff []byte, offset int, length int, extName string, metaList []common.MetaData) (*common.UploadResult, error) {
	return c.UploadFile(group, int64(length), &BufferPusher{Buff: buff, Offset: offset, Length: length}, extName, metaList)
}

// UploadLocalFile uploads a local file. An empty extName is taken
// from the local filename.
func (c *StorageClient) UploadLocalFile(group string, localFilename string, extName string, metaList []common.MetaData) (*common.UploadResult, error) {
	return withLocalFile(localFilename, extName, func(size int64, pusher Pusher, extName string) (*common.UploadResult, error) {
		return c.UploadFile(group, size, pusher, extName, metaList)
	})
}

// UploadAppenderFile uploads a new appender file, which can later be
// appended, modified and truncated.
func (c *StorageClient) UploadAppenderFile(group string, size int64, pusher Pusher, extName string, metaList []common.MetaData) (*common.UploadResult, error) {
	return c.doUpload("upload appender file", common.STORAGE_PROTO_CMD_UPLOAD_APPENDER_FILE, group, "", "", extName, size, pusher, metaList)
}

func (c *StorageClient) UploadAppenderBuffer(group string, buff []byte, extName string, metaList []common.MetaData) (*common.UploadResult, error) {
	return c.UploadAppenderFile(group, int64(len(buff)), NewBufferPusher(buff), extName, metaList)
}

func (c *StorageClient) UploadAppenderLocalFile(group string, localFilename string, extName string, metaList []common.MetaData) (*common.UploadResult, error) {
	return withLocalFile(localFilename, extName, func(size int64, pusher Pusher, extName string) (*common.UploadResult, error) {
		return c.UploadAppenderFile(group, size, pusher, extName, metaList)
	})
}

// UploadSlaveFile uploads a slave file of masterFilename, named after the
// master with prefixName appended. prefixName may be empty.
func (c *StorageClient) UploadSlaveFile(group string, masterFilename string, prefixName string, size int64, pusher Pusher, extName string, metaList []common.MetaData) (*common.UploadResult, error) {
	return c.doUpload("upload slave file", common.STORAGE_PROTO_CMD_UPLOAD_SLAVE_FILE, group, masterFilename, prefixName, extName, size, pusher, metaList)
}

func (c *StorageClient) UploadSlaveBuffer(group string, masterFilename string, prefixName string, buff []byte, extName string, metaList []common.MetaData) (*common.UploadResult, error) {
	return c.UploadSlaveFile(group, masterFilename, prefixName, int64(len(buff)), NewBufferPusher(buff), extName, metaList)
}

func (c *StorageClient) UploadSlaveLocalFile(group string, masterFilename string, prefixName string, localFilename string, extName string, metaList []common.MetaData) (*common.UploadResult, error) {
	return withLocalFile(localFilename, extName, func(size int64, pusher Pusher, extName string) (*common.UploadResult, error) {
		return c.UploadSlaveFile(group, masterFilename, prefixName, size, pusher, extName, metaList)
	})
}

func (c *StorageClient) doUpload(op string, cmd byte, group string, masterFilename string, prefixName string,
	extName string, size int64, pusher Pusher, metaList []common.MetaData) (ret *common.UploadResult, err error) {

	slave := cmd == common.STORAGE_PROTO_CMD_UPLOAD_SLAVE_FILE
	if slave {
		if err = checkFile(op, group, masterFilename); err != nil {
			return nil, err
		}
	}
	if err = checkContent(op, size, pusher); err != nil {
		return nil, err
	}

	var l *lease
	if slave {
		l, err = c.acquire(op, Updatable, group, masterFilename)
	} else {
		l, err = c.acquire(op, Writable, group, "")
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		c.release(l, err)
	}()

	var head bytes.Buffer
	if slave {
		head.Write(bridge.Long2Buff(int64(len(masterFilename))))
		head.Write(bridge.Long2Buff(size))
		head.Write(bridge.PackField(prefixName, common.FDFS_FILE_PREFIX_MAX_LEN))
		head.Write(bridge.PackField(extName, common.FDFS_FILE_EXT_NAME_MAX_LEN))
		head.WriteString(masterFilename)
	} else {
		head.WriteByte(l.conn.StorePathIndex)
		head.Write(bridge.Long2Buff(size))
		head.Write(bridge.PackField(extName, common.FDFS_FILE_EXT_NAME_MAX_LEN))
	}

	logger.Debug(op, " to ", l.conn.RemoteAddr(), ", size ", size)
	if err = send(l.conn, op, cmd, head.Bytes(), size, pusher); err != nil {
		return nil, err
	}
	body, err := recv(l.conn, op, -1)
	if err != nil {
		return nil, err
	}
	if len(body) <= common.FDFS_GROUP_NAME_MAX_LEN {
		err = common.NewProtocolError(op, "body length: "+strconv.Itoa(len(body))+
			" <= "+strconv.Itoa(common.FDFS_GROUP_NAME_MAX_LEN))
		return nil, err
	}
	ret = &common.UploadResult{
		Group:    bridge.UnpackField(body[:common.FDFS_GROUP_NAME_MAX_LEN]),
		Filename: string(body[common.FDFS_GROUP_NAME_MAX_LEN:]),
	}
	logger.Debug(op, " success: ", ret.FileId())

	if len(metaList) == 0 {
		return ret, nil
	}
	if err = setMetadata(l.conn, "set metadata", ret.Group, ret.Filename, metaList,
		common.STORAGE_SET_METADATA_FLAG_OVERWRITE); err != nil {
		c.discardUpload(l, ret, err)
		return nil, err
	}
	return ret, nil
}

// discardUpload deletes an uploaded file whose metadata could not be set.
// The result of the deletion is only logged.
func (c *StorageClient) discardUpload(l *lease, ret *common.UploadResult, cause error) {
	var err error
	if common.IsConnectionBroken(cause) {
		c.release(l, cause)
		err = c.DeleteFile(ret.Group, ret.Filename)
	} else {
		err = deleteFile(l.conn, "delete file", ret.Group, ret.Filename)
		if common.IsConnectionBroken(err) {
			c.release(l, err)
		}
	}
	if err != nil {
		logger.Warn("error deleting file ", ret.FileId(), " after failed metadata update: ", err)
	}
}

func checkContent(op string, size int64, pusher Pusher) error {
	if size < 0 {
		return common.NewInvalidArgumentError(op, "negative content size: "+strconv.FormatInt(size, 10))
	}
	if pusher == nil && size > 0 {
		return common.NewInvalidArgumentError(op, "no content pusher")
	}
	return nil
}

// withLocalFile opens a local file and hands it to upload as a StreamPusher.
func withLocalFile(localFilename string, extName string,
	upload func(size int64, pusher Pusher, extName string) (*common.UploadResult, error)) (*common.UploadResult, error) {

	fi, err := file.GetFile(localFilename)
	if err != nil {
		return nil, common.NewLocalIOError("open local file", err)
	}
	defer fi.Close()
	info, err := fi.Stat()
	if err != nil {
		return nil, common.NewLocalIOError("open local file", err)
	}
	if extName == "" {
		extName = GetFileExtName(localFilename)
	}
	return upload(info.Size(), &StreamPusher{Reader: fi, Size: info.Size()}, extName)
}

// GetFileExtName returns the extension of a local filename without the
// dot, or "" if it is longer than the extension field.
func GetFileExtName(filename string) string {
	base := filepath.Base(filename)
	pos := strings.LastIndex(base, ".")
	if pos <= 0 || len(base)-pos > common.FDFS_FILE_EXT_NAME_MAX_LEN+1 {
		return ""
	}
	return base[pos+1:]
}
