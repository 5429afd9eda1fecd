package common

import (
	"errors"
	"time"

	"github.com/boltdb/bolt"
)

// ConfigMap persists small key/value settings in a bolt file.
type ConfigMap struct {
	db *bolt.DB
}

// NewConfigMap opens (or creates) the bolt file at path.
func NewConfigMap(path string) (*ConfigMap, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second * 3})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BUCKET_KEY_CONFIGMAP))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &ConfigMap{db: db}, nil
}

// GetConfig returns the value of key, nil if it is not set.
func (c *ConfigMap) GetConfig(key string) ([]byte, error) {
	var ret []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BUCKET_KEY_CONFIGMAP))
		if b == nil {
			return errors.New("bucket not found: " + BUCKET_KEY_CONFIGMAP)
		}
		v := b.Get([]byte(key))
		if v != nil {
			ret = make([]byte, len(v))
			copy(ret, v)
		}
		return nil
	})
	return ret, err
}

func (c *ConfigMap) PutConfig(key string, value []byte) error {
	return c.BatchUpdateConfig(func(b *bolt.Bucket) error {
		return b.Put([]byte(key), value)
	})
}

func (c *ConfigMap) DeleteConfig(key string) error {
	return c.BatchUpdateConfig(func(b *bolt.Bucket) error {
		return b.Delete([]byte(key))
	})
}

// BatchUpdateConfig runs work on the config bucket in one transaction.
func (c *ConfigMap) BatchUpdateConfig(work func(b *bolt.Bucket) error) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return work(tx.Bucket([]byte(BUCKET_KEY_CONFIGMAP)))
	})
}

// ListConfig returns all stored settings.
func (c *ConfigMap) ListConfig() (map[string]string, error) {
	ret := make(map[string]string)
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BUCKET_KEY_CONFIGMAP)).ForEach(func(k, v []byte) error {
			ret[string(k)] = string(v)
			return nil
		})
	})
	return ret, err
}

func (c *ConfigMap) Close() error {
	return c.db.Close()
}
