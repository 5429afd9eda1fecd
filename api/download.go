package api

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	"github.com/hetianyi/gofdfs/bridge"
	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gox/file"
	"github.com/hetianyi/gox/logger"
)

// DownloadToBuffer downloads length bytes of a file starting at offset
// into memory. length 0 means up to the end of the file.
func (c *StorageClient) DownloadToBuffer(group string, filename string, offset int64, length int64) (ret []byte, err error) {
	op := "download file"
	l, err := c.startDownload(op, group, filename, offset, length)
	if err != nil {
		return nil, err
	}
	defer func() {
		c.release(l, err)
	}()
	ret, err = recv(l.conn, op, -1)
	return ret, err
}

// DownloadToFile downloads a file to localFilename.
// The local file is removed if the download fails after it was created.
func (c *StorageClient) DownloadToFile(group string, filename string, offset int64, length int64, localFilename string) (err error) {
	op := "download file"
	l, err := c.startDownload(op, group, filename, offset, length)
	if err != nil {
		return err
	}
	defer func() {
		c.release(l, err)
	}()
	total, err := recvDownloadHeader(l.conn, op)
	if err != nil {
		return err
	}

	out, err := file.CreateFile(localFilename)
	if err != nil {
		// the connection still carries the unread body
		err = common.NewLocalIOError(op, err)
		return err
	}
	err = pull(l.conn, op, total, &WriterPuller{Writer: out})
	if cerr := out.Close(); err == nil && cerr != nil {
		err = common.NewLocalIOError(op, cerr)
	}
	if err != nil {
		if !file.Delete(localFilename) {
			logger.Warn("error deleting partial file ", localFilename)
		}
		return err
	}
	logger.Debug(op, " ", group, "/", filename, " saved to ", localFilename)
	return nil
}

// DownloadToPuller downloads a file handing every received chunk to puller.
// An error returned by puller aborts the download.
func (c *StorageClient) DownloadToPuller(group string, filename string, offset int64, length int64, puller Puller) (err error) {
	op := "download file"
	if puller == nil {
		return common.NewInvalidArgumentError(op, "no puller")
	}
	l, err := c.startDownload(op, group, filename, offset, length)
	if err != nil {
		return err
	}
	defer func() {
		c.release(l, err)
	}()
	total, err := recvDownloadHeader(l.conn, op)
	if err != nil {
		return err
	}
	err = pull(l.conn, op, total, puller)
	return err
}

// DownloadToWriter downloads a file into w.
func (c *StorageClient) DownloadToWriter(group string, filename string, offset int64, length int64, w io.Writer) error {
	return c.DownloadToPuller(group, filename, offset, length, &WriterPuller{Writer: w})
}

// startDownload acquires a connection and sends the download request.
func (c *StorageClient) startDownload(op string, group string, filename string, offset int64, length int64) (l *lease, err error) {
	if err = checkFile(op, group, filename); err != nil {
		return nil, err
	}
	if offset < 0 || length < 0 {
		return nil, common.NewInvalidArgumentError(op, "invalid range: offset "+
			strconv.FormatInt(offset, 10)+", length "+strconv.FormatInt(length, 10))
	}
	l, err = c.acquire(op, Readable, group, filename)
	if err != nil {
		return nil, err
	}

	var head bytes.Buffer
	head.Write(bridge.Long2Buff(offset))
	head.Write(bridge.Long2Buff(length))
	head.Write(groupAndName(group, filename))

	logger.Debug(op, " ", group, "/", filename, " from ", l.conn.RemoteAddr(), ", offset ", offset, ", length ", length)
	if err = send(l.conn, op, common.STORAGE_PROTO_CMD_DOWNLOAD_FILE, head.Bytes(), 0, nil); err != nil {
		c.release(l, err)
		return nil, err
	}
	return l, nil
}

func recvDownloadHeader(conn *Connection, op string) (int64, error) {
	header, err := bridge.ReadHeader(conn, common.STORAGE_PROTO_CMD_RESP, -1)
	if err != nil {
		return 0, withOp(err, op)
	}
	if header.Status != 0 {
		return 0, common.NewRemoteError(op, header.Status)
	}
	return header.BodyLength, nil
}

// pull reads total bytes from conn in chunks of at most
// DOWNLOAD_BUFFER_SIZE bytes and hands them to puller.
func pull(conn *Connection, op string, total int64, puller Puller) error {
	size := int64(common.DOWNLOAD_BUFFER_SIZE)
	if total < size {
		size = total
	}
	buff := make([]byte, size)
	remain := total
	for remain > 0 {
		n := int64(len(buff))
		if remain < n {
			n = remain
		}
		read, err := conn.Read(buff[:n])
		if read > 0 {
			remain -= int64(read)
			if perr := puller.Pull(total, buff[:read]); perr != nil {
				return common.NewAbortError(op, perr)
			}
		}
		if err != nil && remain > 0 {
			if err == io.EOF {
				err = errors.New("recv package size " + strconv.FormatInt(total-remain, 10) +
					" != " + strconv.FormatInt(total, 10))
			}
			return common.NewLocalIOError(op, err)
		}
	}
	return nil
}
