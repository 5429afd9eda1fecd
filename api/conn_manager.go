package api

import (
	"errors"

	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gox/logger"
)

// Capability is the kind of storage node an operation needs.
type Capability int

const (
	Writable  Capability = iota // stores new files
	Readable                    // holds the file
	Updatable                   // owns the file
)

var noTrackerErr = errors.New("no tracker and no connection")

// lease is the connection one operation runs on.
type lease struct {
	conn      *Connection
	ephemeral bool
	released  bool
	op        string
}

// acquire returns the caller supplied connection if there is one,
// otherwise asks the tracker for a new one.
func (c *StorageClient) acquire(op string, capability Capability, group string, filename string) (*lease, error) {
	if c.conn != nil {
		return &lease{conn: c.conn, op: op}, nil
	}
	if c.tracker == nil {
		return nil, common.NewResolutionError(op, noTrackerErr)
	}
	var conn *Connection
	var err error
	switch capability {
	case Writable:
		conn, err = c.tracker.GetStoreConnection(group)
	case Readable:
		conn, err = c.tracker.GetFetchConnection(group, filename)
	default:
		conn, err = c.tracker.GetUpdateConnection(group, filename)
	}
	if err != nil {
		return nil, common.NewResolutionError(op, err)
	}
	if conn == nil {
		return nil, common.NewResolutionError(op, noTrackerErr)
	}
	logger.Debug(op, ": using connection to ", conn.RemoteAddr())
	return &lease{conn: conn, ephemeral: true, op: op}, nil
}

// release disposes of the lease according to its ownership and the
// outcome of the operation. Calling it twice is a no-op.
func (c *StorageClient) release(l *lease, err error) {
	if l == nil || l.released {
		return
	}
	l.released = true
	if l.ephemeral {
		l.conn.Close()
		return
	}
	if common.IsConnectionBroken(err) {
		logger.Debug(l.op, ": connection broken: ", err)
		l.conn.Close()
		if c.conn == l.conn {
			c.conn = nil
		}
	}
}
