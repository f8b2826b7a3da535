package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T, isLocal, readOnly bool) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	return NewFileStore(path, "juno", "juno-1", "v1", isLocal, readOnly), path
}

func TestFileStore_SetGetCodeID_RoundTrip(t *testing.T) {
	s, _ := tempStore(t, false, false)

	_, err := s.GetCodeID("foo")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetCodeID("foo", 42))

	id, err := s.GetCodeID("foo")
	require.NoError(t, err)
	require.Equal(t, uint64(42), id)
}

func TestFileStore_SetGetAddress_RoundTrip(t *testing.T) {
	s, _ := tempStore(t, false, false)

	require.NoError(t, s.SetAddress("foo", "juno1abc"))

	addr, err := s.GetAddress("foo")
	require.NoError(t, err)
	require.Equal(t, "juno1abc", addr)
}

func TestFileStore_RemoveAddress(t *testing.T) {
	s, _ := tempStore(t, false, false)
	require.NoError(t, s.SetAddress("foo", "juno1abc"))
	require.NoError(t, s.RemoveAddress("foo"))

	_, err := s.GetAddress("foo")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_ReadOnly_RejectsMutation(t *testing.T) {
	s, path := tempStore(t, false, true)

	err := s.SetAddress("foo", "juno1abc")
	require.ErrorIs(t, err, ErrReadOnly)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "read-only store must not create the file")
}

func TestFileStore_Flush_OnlyLocal(t *testing.T) {
	sLocal, _ := tempStore(t, true, false)
	require.NoError(t, sLocal.SetCodeID("foo", 1))
	require.NoError(t, sLocal.Flush())
	_, err := sLocal.GetCodeID("foo")
	require.ErrorIs(t, err, ErrNotFound)

	sRemote, _ := tempStore(t, false, false)
	require.NoError(t, sRemote.SetCodeID("foo", 1))
	require.ErrorIs(t, sRemote.Flush(), ErrFlushNotLocal)
}

func TestFileStore_PreservesUnknownKeys(t *testing.T) {
	s, path := tempStore(t, false, false)
	require.NoError(t, s.SetCodeID("foo", 7))

	// Inject an unrelated key as another tool might.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	doc["juno"]["juno-1"]["some_other_deployment"] = json.RawMessage(`{"bar":"juno1xyz"}`)
	encoded, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, encoded, 0o644))

	require.NoError(t, s.SetAddress("foo", "juno1abc"))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	var after Document
	require.NoError(t, json.Unmarshal(data, &after))
	require.Contains(t, after["juno"]["juno-1"], "some_other_deployment")
}

func TestFileStore_GetAllCodeIDsAndAddresses(t *testing.T) {
	s, _ := tempStore(t, false, false)
	require.NoError(t, s.SetCodeID("foo", 1))
	require.NoError(t, s.SetCodeID("bar", 2))
	require.NoError(t, s.SetAddress("foo", "juno1foo"))

	ids, err := s.GetAllCodeIDs()
	require.NoError(t, err)
	require.Equal(t, map[string]uint64{"foo": 1, "bar": 2}, ids)

	addrs, err := s.GetAllAddresses()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"foo": "juno1foo"}, addrs)
}

func TestResolvePath_Absolute(t *testing.T) {
	p, err := ResolvePath("/tmp/foo/state.json", false)
	require.NoError(t, err)
	require.Equal(t, "/tmp/foo/state.json", p)
}

func TestResolvePath_Relative(t *testing.T) {
	p, err := ResolvePath("./state.json", false)
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(p))
	require.Equal(t, "state.json", filepath.Base(p))
}

func TestResolvePath_LocalSuffix(t *testing.T) {
	p, err := ResolvePath("/tmp/foo/state.json", true)
	require.NoError(t, err)
	require.Equal(t, "/tmp/foo/state_local.json", p)
}

func TestResolvePath_Default_UnderHomeDir(t *testing.T) {
	p, err := ResolvePath("mystate.json", false)
	require.NoError(t, err)
	require.Contains(t, p, defaultStateDirName)
}
