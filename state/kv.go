// Package state layers a typed key-value view and a transactional overlay on
// top of the raw storage backend.
package state

import (
	"errors"

	"github.com/ethereum/go-ethereum/rlp"

	"reservenet/storage"
)

// KV encodes typed records to RLP on top of a raw byte store. It satisfies
// the Storage interface consumed by the native modules.
type KV struct {
	db storage.Database
}

// NewKV wraps the supplied database.
func NewKV(db storage.Database) *KV {
	return &KV{db: db}
}

// KVGet decodes the value stored under key into out. A missing key reports
// (false, nil). A nil out probes for existence only.
func (kv *KV) KVGet(key []byte, out interface{}) (bool, error) {
	encoded, err := kv.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(encoded, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVPut encodes value to RLP and stores it under key.
func (kv *KV) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return kv.db.Put(key, encoded)
}
