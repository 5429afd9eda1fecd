package api

import (
	"net"
	"time"

	"github.com/hetianyi/gofdfs/bridge"
	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gox/logger"
)

// Connection is a duplex byte stream to one storage node.
//
// A Connection must not be used by more than one operation at a time.
type Connection struct {
	conn           net.Conn
	StorePathIndex byte          // store path hint sent with uploads
	NetworkTimeout time.Duration // per read/write deadline, 0 disables it
}

// NewConnection wraps an established connection.
func NewConnection(conn net.Conn, storePathIndex byte) *Connection {
	return &Connection{
		conn:           conn,
		StorePathIndex: storePathIndex,
	}
}

// Dial connects to a storage server.
func Dial(server *common.StorageServer, connectTimeout, networkTimeout time.Duration) (*Connection, error) {
	logger.Debug("connecting to storage server ", server.ConnectionString())
	c, err := net.DialTimeout("tcp", server.ConnectionString(), connectTimeout)
	if err != nil {
		return nil, err
	}
	return &Connection{
		conn:           c,
		StorePathIndex: server.StorePathIndex,
		NetworkTimeout: networkTimeout,
	}, nil
}

func (c *Connection) refreshDeadline() {
	if c.NetworkTimeout > 0 {
		c.conn.SetDeadline(time.Now().Add(c.NetworkTimeout))
	}
}

func (c *Connection) Read(p []byte) (int, error) {
	c.refreshDeadline()
	return c.conn.Read(p)
}

func (c *Connection) Write(p []byte) (int, error) {
	c.refreshDeadline()
	return c.conn.Write(p)
}

// RemoteAddr returns the address of the storage node.
func (c *Connection) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (c *Connection) Close() error {
	logger.Debug("close connection to ", c.RemoteAddr())
	return c.conn.Close()
}

// ActiveTest checks whether the storage node is still alive.
func (c *Connection) ActiveTest() error {
	if _, err := c.Write(bridge.PackHeader(common.FDFS_PROTO_CMD_ACTIVE_TEST, 0, 0)); err != nil {
		return common.NewLocalIOError("active test", err)
	}
	header, err := bridge.ReadHeader(c, common.STORAGE_PROTO_CMD_RESP, 0)
	if err != nil {
		return err
	}
	if header.Status != 0 {
		return common.NewRemoteError("active test", header.Status)
	}
	return nil
}
