package yaml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type networkEntry struct {
	Name    string `yaml:"name"`
	ChainID int64  `yaml:"chain_id"`
	RPCURL  string `yaml:"rpc_url"`
}

type networksFile struct {
	Networks []networkEntry `yaml:"networks"`
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.yaml")
	contents := `networks:
  - name: ethereum
    chain_id: 1
    rpc_url: http://eth.local
  - name: sepolia
    chain_id: 11155111
    rpc_url: http://sepolia.local
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	var out networksFile
	require.NoError(t, LoadYAML(path, &out))
	require.Len(t, out.Networks, 2)
	assert.Equal(t, networkEntry{Name: "ethereum", ChainID: 1, RPCURL: "http://eth.local"}, out.Networks[0])
	assert.Equal(t, int64(11155111), out.Networks[1].ChainID)
}

func TestLoadYAMLErrors(t *testing.T) {
	var out networksFile
	assert.Error(t, LoadYAML("", &out))
	assert.Error(t, LoadYAML("/nonexistent/networks.yaml", &out))
	assert.Error(t, LoadYAML("/tmp", nil))
}
