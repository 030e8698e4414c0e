package config

import (
	"fmt"
	"time"

	"github.com/gasgate-labs/gasgate-backend/internal/oracle"
	"github.com/gasgate-labs/gasgate-backend/pkg/env"
	"github.com/gasgate-labs/gasgate-backend/pkg/yaml"
)

type networkEntry struct {
	Name      string `yaml:"name"`
	ChainID   int64  `yaml:"chain_id"`
	RPCURL    string `yaml:"rpc_url"`
	GasAPIURL string `yaml:"gas_api_url"`
	BlockTime string `yaml:"block_time"`
	Fallback  bool   `yaml:"fallback"`
}

type networksFile struct {
	Networks []networkEntry `yaml:"networks"`
}

// LoadNetworks reads the network registry from the configured YAML file.
func LoadNetworks() ([]oracle.Network, error) {
	return loadNetworks(cfg.networksFile)
}

func loadNetworks(path string) ([]oracle.Network, error) {
	var file networksFile
	if err := yaml.LoadYAML(path, &file); err != nil {
		return nil, fmt.Errorf("failed to load networks file: %w", err)
	}
	if len(file.Networks) == 0 {
		return nil, fmt.Errorf("networks file %s lists no networks", path)
	}

	networks := make([]oracle.Network, 0, len(file.Networks))
	for _, entry := range file.Networks {
		if !env.IsValidURL(entry.RPCURL) {
			return nil, fmt.Errorf("network %s has invalid rpc_url %q", entry.Name, entry.RPCURL)
		}
		if entry.GasAPIURL != "" && !env.IsValidURL(entry.GasAPIURL) {
			return nil, fmt.Errorf("network %s has invalid gas_api_url %q", entry.Name, entry.GasAPIURL)
		}
		n := oracle.Network{
			Name:      entry.Name,
			ChainID:   entry.ChainID,
			RPCURL:    entry.RPCURL,
			GasAPIURL: entry.GasAPIURL,
			Fallback:  entry.Fallback,
		}
		if entry.BlockTime != "" {
			blockTime, err := time.ParseDuration(entry.BlockTime)
			if err != nil {
				return nil, fmt.Errorf("network %s has invalid block_time %q: %w", entry.Name, entry.BlockTime, err)
			}
			n.BlockTime = blockTime
		}
		networks = append(networks, n)
	}
	return networks, nil
}
