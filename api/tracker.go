package api

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gox"
	"github.com/hetianyi/gox/logger"
)

// Tracker resolves the storage node an operation should talk to.
// Implementations must be safe for concurrent use.
type Tracker interface {
	// GetStoreConnection returns a node able to store new files of group.
	// group may be empty to let the tracker choose.
	GetStoreConnection(group string) (*Connection, error)
	// GetFetchConnection returns a node holding the file.
	GetFetchConnection(group string, filename string) (*Connection, error)
	// GetUpdateConnection returns the node owning the file.
	GetUpdateConnection(group string, filename string) (*Connection, error)
}

// StaticTracker resolves connections from a fixed storage server list.
// Servers of a group are expected to replicate each other, the first one
// configured for a group is treated as the owner of its files.
type StaticTracker struct {
	servers        []common.StorageServer
	connectTimeout time.Duration
	networkTimeout time.Duration
	lock           *sync.Mutex
	weights        map[string]int64 // server use weights
}

// NewStaticTracker creates a tracker over the parsed storages of config.
func NewStaticTracker(config *common.ClientConfig) *StaticTracker {
	t := &StaticTracker{
		servers:        config.ParsedStorages,
		connectTimeout: time.Second * time.Duration(config.ConnectTimeout),
		networkTimeout: time.Second * time.Duration(config.NetworkTimeout),
		lock:           new(sync.Mutex),
		weights:        make(map[string]int64),
	}
	if t.connectTimeout <= 0 {
		t.connectTimeout = time.Second * common.DEFAULT_CONNECT_TIMEOUT
	}
	if len(t.servers) == 0 {
		logger.Warn("tracker initialized but no storage server provided")
	}
	return t
}

func (t *StaticTracker) GetStoreConnection(group string) (*Connection, error) {
	return t.dial(group, t.selectStorageServer(group, false))
}

func (t *StaticTracker) GetFetchConnection(group string, filename string) (*Connection, error) {
	if group == "" {
		return nil, common.Errno(common.ERR_NO_EINVAL)
	}
	return t.dial(group, t.selectStorageServer(group, false))
}

func (t *StaticTracker) GetUpdateConnection(group string, filename string) (*Connection, error) {
	if group == "" {
		return nil, common.Errno(common.ERR_NO_EINVAL)
	}
	return t.dial(group, t.selectStorageServer(group, true))
}

func (t *StaticTracker) dial(group string, server *common.StorageServer) (*Connection, error) {
	if server == nil {
		return nil, fmt.Errorf("no storage available for group '%s': %w", group, common.Errno(common.ERR_NO_ENOENT))
	}
	c, err := Dial(server, t.connectTimeout, t.networkTimeout)
	if err != nil {
		logger.Debug("error connecting to storage server ", server.ConnectionString(), ": ", err)
		return nil, err
	}
	return c, nil
}

// selectStorageServer selects the least used server of group,
// or the first one when owner is true.
func (t *StaticTracker) selectStorageServer(group string, owner bool) *common.StorageServer {
	t.lock.Lock()
	defer t.lock.Unlock()
	var candidates = list.New()
	for i := range t.servers {
		s := &t.servers[i]
		if group != "" && s.Group != group {
			continue
		}
		candidates.PushBack(s)
	}
	if candidates.Len() == 0 {
		return nil
	}
	if owner {
		return candidates.Front().Value.(*common.StorageServer)
	}
	var selected *common.StorageServer
	gox.WalkList(candidates, func(item interface{}) bool {
		s := item.(*common.StorageServer)
		if selected == nil || t.weights[s.ConnectionString()] < t.weights[selected.ConnectionString()] {
			selected = s
		}
		return false
	})
	t.weights[selected.ConnectionString()]++
	return selected
}
