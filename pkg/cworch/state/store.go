// Package state implements the persistent (chain-id, deployment-id) ->
// {contract-id -> address, contract-id -> code-id} mapping described in
// spec.md §3 (DeploymentState) and §4.1 (State Store).
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// codeIDsKey is the fixed key under which code-ids are stored, distinct
// from any deployment-id a caller might choose (spec.md §3).
const codeIDsKey = "code_ids"

// Document is the on-disk shape (spec.md §6):
//
//	{
//	  "<chain_name>": {
//	    "<chain_id>": {
//	      "code_ids": { "<contract_id>": <u64>, ... },
//	      "<deployment_id>": { "<contract_id>": "<bech32-address>", ... },
//	      ...
//	    }, ...
//	  }, ...
//	}
//
// Values are left as json.RawMessage at the chain-id level so unknown keys
// (anything that isn't "code_ids" and isn't our DeploymentID) keep their
// content on write, per the "unknown keys are preserved on write"
// invariant; their whitespace is re-indented with the rest of the document.
type Document map[string]map[string]map[string]json.RawMessage

// Store is the L1 state-store contract (spec.md §4.1).
type Store interface {
	GetAddress(contractID string) (string, error)
	SetAddress(contractID, addr string) error
	RemoveAddress(contractID string) error

	GetCodeID(contractID string) (uint64, error)
	SetCodeID(contractID string, codeID uint64) error
	RemoveCodeID(contractID string) error

	GetAllAddresses() (map[string]string, error)
	GetAllCodeIDs() (map[string]uint64, error)

	// Flush clears every deployment/code-id entry for this chain+deployment.
	// Only permitted when the chain kind is Local (spec.md §4.1).
	Flush() error
}

// These are kept as plain errors (not wrapped sentinels) here because the
// typed errors carrying contract-id context live in package environment
// (re-exported by cworch), which this package must not import (it would
// create an import cycle with environment -> state). ContractHandle adapts
// ErrNotFound into AddrNotInStoreError / CodeIdNotInStoreError.
var (
	ErrNotFound  = fmt.Errorf("state: key not found")
	ErrReadOnly  = fmt.Errorf("state: store is read-only")
	ErrFlushNotLocal = fmt.Errorf("state: flush is only permitted for local chains")
)

// FileStore is the default Store implementation: a single JSON document on
// disk, read-modify-written on every mutation (spec.md §4.1 "Persistence
// discipline"). It is NOT internally locked across processes — spec.md §5
// places that burden on the caller ("two environments sharing a state file
// must serialize externally").
type FileStore struct {
	path         string
	chainName    string
	chainID      string
	deploymentID string
	isLocal      bool
	readOnly     bool
}

// NewFileStore opens (but does not yet read) the state file at path for the
// given (chain_name, chain_id, deployment_id) coordinate.
func NewFileStore(path, chainName, chainID, deploymentID string, isLocal, readOnly bool) *FileStore {
	return &FileStore{
		path:         path,
		chainName:    chainName,
		chainID:      chainID,
		deploymentID: deploymentID,
		isLocal:      isLocal,
		readOnly:     readOnly,
	}
}

// Path returns the resolved on-disk path this store reads/writes.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) read() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, nil
		}
		return nil, fmt.Errorf("state: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("state: parse %s: %w", s.path, err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// write performs a full-document replacement, pretty-printed with 2-space
// indent (spec.md §3, §6). The file is opened, written, and closed for
// every mutation — no held file handle (spec.md §4.1).
func (s *FileStore) write(doc Document) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("state: mkdir for %s: %w", s.path, err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("state: write %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) chainBucket(doc Document) map[string]json.RawMessage {
	byChain, ok := doc[s.chainName]
	if !ok {
		return nil
	}
	return byChain[s.chainID]
}

func (s *FileStore) ensureChainBucket(doc Document) map[string]json.RawMessage {
	byChain, ok := doc[s.chainName]
	if !ok {
		byChain = map[string]map[string]json.RawMessage{}
		doc[s.chainName] = byChain
	}
	bucket, ok := byChain[s.chainID]
	if !ok {
		bucket = map[string]json.RawMessage{}
		byChain[s.chainID] = bucket
	}
	return bucket
}

func (s *FileStore) readMapKey(key string) (map[string]json.RawMessage, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	bucket := s.chainBucket(doc)
	if bucket == nil {
		return nil, nil
	}
	raw, ok := bucket[key]
	if !ok {
		return nil, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("state: parse %s.%s: %w", s.chainID, key, err)
	}
	return m, nil
}

func (s *FileStore) writeMapKey(key string, mutate func(m map[string]json.RawMessage) error) error {
	if s.readOnly {
		return ErrReadOnly
	}
	doc, err := s.read()
	if err != nil {
		return err
	}
	bucket := s.ensureChainBucket(doc)
	m := map[string]json.RawMessage{}
	if raw, ok := bucket[key]; ok {
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("state: parse %s.%s: %w", s.chainID, key, err)
		}
	}
	if err := mutate(m); err != nil {
		return err
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("state: marshal %s.%s: %w", s.chainID, key, err)
	}
	bucket[key] = encoded
	return s.write(doc)
}

// GetAddress implements Store.
func (s *FileStore) GetAddress(contractID string) (string, error) {
	m, err := s.readMapKey(s.deploymentID)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", ErrNotFound
	}
	raw, ok := m[contractID]
	if !ok {
		return "", ErrNotFound
	}
	var addr string
	if err := json.Unmarshal(raw, &addr); err != nil {
		return "", fmt.Errorf("state: parse address for %s: %w", contractID, err)
	}
	return addr, nil
}

// SetAddress implements Store.
func (s *FileStore) SetAddress(contractID, addr string) error {
	return s.writeMapKey(s.deploymentID, func(m map[string]json.RawMessage) error {
		encoded, err := json.Marshal(addr)
		if err != nil {
			return err
		}
		m[contractID] = encoded
		return nil
	})
}

// RemoveAddress implements Store.
func (s *FileStore) RemoveAddress(contractID string) error {
	return s.writeMapKey(s.deploymentID, func(m map[string]json.RawMessage) error {
		delete(m, contractID)
		return nil
	})
}

// GetCodeID implements Store.
func (s *FileStore) GetCodeID(contractID string) (uint64, error) {
	m, err := s.readMapKey(codeIDsKey)
	if err != nil {
		return 0, err
	}
	if m == nil {
		return 0, ErrNotFound
	}
	raw, ok := m[contractID]
	if !ok {
		return 0, ErrNotFound
	}
	var id uint64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, fmt.Errorf("state: parse code id for %s: %w", contractID, err)
	}
	return id, nil
}

// SetCodeID implements Store.
func (s *FileStore) SetCodeID(contractID string, codeID uint64) error {
	return s.writeMapKey(codeIDsKey, func(m map[string]json.RawMessage) error {
		encoded, err := json.Marshal(codeID)
		if err != nil {
			return err
		}
		m[contractID] = encoded
		return nil
	})
}

// RemoveCodeID implements Store.
func (s *FileStore) RemoveCodeID(contractID string) error {
	return s.writeMapKey(codeIDsKey, func(m map[string]json.RawMessage) error {
		delete(m, contractID)
		return nil
	})
}

// GetAllAddresses implements Store.
func (s *FileStore) GetAllAddresses() (map[string]string, error) {
	m, err := s.readMapKey(s.deploymentID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(m))
	for k, raw := range m {
		var addr string
		if err := json.Unmarshal(raw, &addr); err != nil {
			return nil, fmt.Errorf("state: parse address for %s: %w", k, err)
		}
		out[k] = addr
	}
	return out, nil
}

// GetAllCodeIDs implements Store.
func (s *FileStore) GetAllCodeIDs() (map[string]uint64, error) {
	m, err := s.readMapKey(codeIDsKey)
	if err != nil {
		return nil, err
	}
	out := make(map[string]uint64, len(m))
	for k, raw := range m {
		var id uint64
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, fmt.Errorf("state: parse code id for %s: %w", k, err)
		}
		out[k] = id
	}
	return out, nil
}

// Flush clears this chain's code-ids and this deployment's addresses. Only
// permitted for local chains (spec.md §4.1) to guard against accidentally
// wiping real deployment records.
func (s *FileStore) Flush() error {
	if !s.isLocal {
		return ErrFlushNotLocal
	}
	if s.readOnly {
		return ErrReadOnly
	}
	doc, err := s.read()
	if err != nil {
		return err
	}
	bucket := s.chainBucket(doc)
	if bucket != nil {
		delete(bucket, codeIDsKey)
		delete(bucket, s.deploymentID)
	}
	return s.write(doc)
}

var _ Store = (*FileStore)(nil)
