package state

import (
	"encoding/binary"
	"fmt"

	dbm "github.com/cosmos/cosmos-db"
)

// KVStore is an alternate Store backed by a cosmos-db handle (MemDB,
// GoLevelDB, BadgerDB, ...) instead of a single JSON file. It keeps the same
// (chain_name, chain_id, deployment_id) coordinate and persistence
// semantics as FileStore (spec.md §4.1) but is addressable as ordinary
// key-value pairs, which suits embedding cw-orch state inside a larger
// application's own db handle rather than a dedicated file.
//
// Keys are laid out as "<chain_name>/<chain_id>/<bucket>/<contract_id>",
// where bucket is either codeIDsKey or the deployment-id, mirroring the
// two buckets FileStore keeps per chain-id.
type KVStore struct {
	db           dbm.DB
	chainName    string
	chainID      string
	deploymentID string
	isLocal      bool
	readOnly     bool
}

// NewKVStore wraps db for the given (chain_name, chain_id, deployment_id)
// coordinate. db is not owned by the Store: callers open and close it.
func NewKVStore(db dbm.DB, chainName, chainID, deploymentID string, isLocal, readOnly bool) *KVStore {
	return &KVStore{
		db:           db,
		chainName:    chainName,
		chainID:      chainID,
		deploymentID: deploymentID,
		isLocal:      isLocal,
		readOnly:     readOnly,
	}
}

func (s *KVStore) key(bucket, contractID string) []byte {
	return []byte(fmt.Sprintf("%s/%s/%s/%s", s.chainName, s.chainID, bucket, contractID))
}

func (s *KVStore) bucketPrefix(bucket string) []byte {
	return []byte(fmt.Sprintf("%s/%s/%s/", s.chainName, s.chainID, bucket))
}

// prefixRange returns the [start, end) range that an Iterator must be given
// to walk every key sharing prefix, per cosmos-db's half-open Iterator
// convention.
func prefixRange(prefix []byte) ([]byte, []byte) {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return prefix, end[:i+1]
		}
	}
	return prefix, nil
}

// GetAddress implements Store.
func (s *KVStore) GetAddress(contractID string) (string, error) {
	val, err := s.db.Get(s.key(s.deploymentID, contractID))
	if err != nil {
		return "", fmt.Errorf("state: kv get address for %s: %w", contractID, err)
	}
	if val == nil {
		return "", ErrNotFound
	}
	return string(val), nil
}

// SetAddress implements Store.
func (s *KVStore) SetAddress(contractID, addr string) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if err := s.db.Set(s.key(s.deploymentID, contractID), []byte(addr)); err != nil {
		return fmt.Errorf("state: kv set address for %s: %w", contractID, err)
	}
	return nil
}

// RemoveAddress implements Store.
func (s *KVStore) RemoveAddress(contractID string) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if err := s.db.Delete(s.key(s.deploymentID, contractID)); err != nil {
		return fmt.Errorf("state: kv delete address for %s: %w", contractID, err)
	}
	return nil
}

// GetCodeID implements Store.
func (s *KVStore) GetCodeID(contractID string) (uint64, error) {
	val, err := s.db.Get(s.key(codeIDsKey, contractID))
	if err != nil {
		return 0, fmt.Errorf("state: kv get code id for %s: %w", contractID, err)
	}
	if val == nil {
		return 0, ErrNotFound
	}
	return binary.BigEndian.Uint64(val), nil
}

// SetCodeID implements Store.
func (s *KVStore) SetCodeID(contractID string, codeID uint64) error {
	if s.readOnly {
		return ErrReadOnly
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, codeID)
	if err := s.db.Set(s.key(codeIDsKey, contractID), buf); err != nil {
		return fmt.Errorf("state: kv set code id for %s: %w", contractID, err)
	}
	return nil
}

// RemoveCodeID implements Store.
func (s *KVStore) RemoveCodeID(contractID string) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if err := s.db.Delete(s.key(codeIDsKey, contractID)); err != nil {
		return fmt.Errorf("state: kv delete code id for %s: %w", contractID, err)
	}
	return nil
}

// GetAllAddresses implements Store.
func (s *KVStore) GetAllAddresses() (map[string]string, error) {
	prefix := s.bucketPrefix(s.deploymentID)
	start, end := prefixRange(prefix)
	it, err := s.db.Iterator(start, end)
	if err != nil {
		return nil, fmt.Errorf("state: kv iterate addresses: %w", err)
	}
	defer it.Close()

	out := make(map[string]string)
	for ; it.Valid(); it.Next() {
		contractID := string(it.Key()[len(prefix):])
		out[contractID] = string(it.Value())
	}
	return out, it.Error()
}

// GetAllCodeIDs implements Store.
func (s *KVStore) GetAllCodeIDs() (map[string]uint64, error) {
	prefix := s.bucketPrefix(codeIDsKey)
	start, end := prefixRange(prefix)
	it, err := s.db.Iterator(start, end)
	if err != nil {
		return nil, fmt.Errorf("state: kv iterate code ids: %w", err)
	}
	defer it.Close()

	out := make(map[string]uint64)
	for ; it.Valid(); it.Next() {
		contractID := string(it.Key()[len(prefix):])
		out[contractID] = binary.BigEndian.Uint64(it.Value())
	}
	return out, it.Error()
}

// Flush implements Store. Only permitted for local chains, matching
// FileStore.
func (s *KVStore) Flush() error {
	if !s.isLocal {
		return ErrFlushNotLocal
	}
	if s.readOnly {
		return ErrReadOnly
	}
	for _, bucket := range []string{codeIDsKey, s.deploymentID} {
		prefix := s.bucketPrefix(bucket)
		start, end := prefixRange(prefix)
		it, err := s.db.Iterator(start, end)
		if err != nil {
			return fmt.Errorf("state: kv flush iterate %s: %w", bucket, err)
		}
		var keys [][]byte
		for ; it.Valid(); it.Next() {
			k := make([]byte, len(it.Key()))
			copy(k, it.Key())
			keys = append(keys, k)
		}
		iterErr := it.Error()
		it.Close()
		if iterErr != nil {
			return fmt.Errorf("state: kv flush iterate %s: %w", bucket, iterErr)
		}
		for _, k := range keys {
			if err := s.db.Delete(k); err != nil {
				return fmt.Errorf("state: kv flush delete: %w", err)
			}
		}
	}
	return nil
}

var _ Store = (*KVStore)(nil)
