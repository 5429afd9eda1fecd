package api

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/hetianyi/gofdfs/bridge"
	"github.com/hetianyi/gofdfs/common"
)

// StorageClient runs storage operations, either on a caller supplied
// connection or on a connection acquired from the tracker for every
// single operation.
//
// A StorageClient is not safe for concurrent use, create one per goroutine.
type StorageClient struct {
	tracker Tracker
	conn    *Connection
}

// NewStorageClient creates a client. tracker may be nil when conn is set,
// conn may be nil when tracker is set.
func NewStorageClient(tracker Tracker, conn *Connection) *StorageClient {
	return &StorageClient{
		tracker: tracker,
		conn:    conn,
	}
}

// Connection returns the caller supplied connection, nil if there is none
// or it was closed after an io error.
func (c *StorageClient) Connection() *Connection {
	return c.conn
}

// send writes a request frame made of head followed by size bytes
// written by pusher.
func send(conn *Connection, op string, cmd byte, head []byte, size int64, pusher Pusher) error {
	var buff bytes.Buffer
	buff.Write(bridge.PackHeader(cmd, int64(len(head))+size, 0))
	buff.Write(head)
	if _, err := conn.Write(buff.Bytes()); err != nil {
		return common.NewLocalIOError(op, err)
	}
	if pusher == nil {
		return nil
	}
	cw := &countingWriter{out: conn}
	if err := pusher.Push(cw); err != nil {
		return common.NewAbortError(op, err)
	}
	if cw.n != size {
		return common.NewLocalIOError(op, errors.New("pushed "+strconv.FormatInt(cw.n, 10)+
			" bytes, expect "+strconv.FormatInt(size, 10)))
	}
	return nil
}

// recv reads a response frame. A non-zero status is a remote error.
func recv(conn *Connection, op string, expectBodyLength int64) ([]byte, error) {
	header, body, err := bridge.ReadPackage(conn, common.STORAGE_PROTO_CMD_RESP, expectBodyLength)
	if err != nil {
		return nil, withOp(err, op)
	}
	if header.Status != 0 {
		return nil, common.NewRemoteError(op, header.Status)
	}
	return body, nil
}

func withOp(err error, op string) error {
	if se, ok := err.(*common.StorageError); ok {
		se.Op = op
	}
	return err
}

// groupAndName packs [group][filename].
func groupAndName(group string, filename string) []byte {
	var buff bytes.Buffer
	buff.Write(bridge.PackField(group, common.FDFS_GROUP_NAME_MAX_LEN))
	buff.WriteString(filename)
	return buff.Bytes()
}

func checkFile(op string, group string, filename string) error {
	if group == "" {
		return common.NewInvalidArgumentError(op, "group is empty")
	}
	if filename == "" {
		return common.NewInvalidArgumentError(op, "filename is empty")
	}
	return nil
}
