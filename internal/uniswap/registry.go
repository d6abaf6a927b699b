package uniswap

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Asset symbols known to the default deployment table.
const (
	SymbolWETH = "weth"
	SymbolUSDC = "usdc"
)

// MainnetKey is the network key of the Ethereum mainnet deployment.
const MainnetKey = "ethereum-mainnet"

var (
	// ErrUnknownNetwork is returned when no deployment is registered for a network.
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrUnknownAsset is returned when an asset symbol is not registered for a network.
	ErrUnknownAsset = errors.New("unknown asset")
)

// AssetConfig is the textual form of an asset entry.
type AssetConfig struct {
	Address  string
	Decimals int32
}

// DeploymentConfig is the textual form of a per-network deployment entry.
type DeploymentConfig struct {
	ChainID         string
	Aliases         []string
	PositionManager string
	Factory         string
	Assets          map[string]AssetConfig
}

// Asset is a token with a fixed decimal count.
type Asset struct {
	Symbol   string
	Address  common.Address
	Decimals int32
}

// Deployment holds the contract addresses of one network.
type Deployment struct {
	Key             string
	ChainID         string
	PositionManager common.Address
	Factory         common.Address
	assets          map[string]Asset
}

// Asset returns the asset registered under symbol.
func (d Deployment) Asset(symbol string) (Asset, error) {
	asset, ok := d.assets[strings.ToLower(symbol)]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %s not supported on %s", ErrUnknownAsset, symbol, d.Key)
	}
	return asset, nil
}

// AssetByAddress returns the asset registered at address.
func (d Deployment) AssetByAddress(address common.Address) (Asset, bool) {
	for _, asset := range d.assets {
		if asset.Address == address {
			return asset, true
		}
	}
	return Asset{}, false
}

// Registry is the immutable address table. It is built once at start-up and
// shared by reference.
type Registry struct {
	deployments map[string]Deployment
	byChainID   map[string]string
	byAlias     map[string]string
}

// DefaultDeployments returns the Uniswap V3 mainnet deployment table.
func DefaultDeployments() map[string]DeploymentConfig {
	return map[string]DeploymentConfig{
		MainnetKey: {
			ChainID:         "1",
			Aliases:         []string{"mainnet"},
			PositionManager: "0xC36442b4a4522E871399CD717aBDD847Ab11FE88",
			Factory:         "0x1F98431c8aD98523631AE4a59f267346ea31F984",
			Assets: map[string]AssetConfig{
				SymbolWETH: {Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
				SymbolUSDC: {Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
			},
		},
	}
}

// DefaultRegistry builds the registry from DefaultDeployments.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(DefaultDeployments())
}

// NewRegistry validates every address in defs and builds a Registry.
func NewRegistry(defs map[string]DeploymentConfig) (*Registry, error) {
	r := &Registry{
		deployments: make(map[string]Deployment, len(defs)),
		byChainID:   make(map[string]string, len(defs)),
		byAlias:     make(map[string]string),
	}

	keys := make([]string, 0, len(defs))
	for key := range defs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		def := defs[key]
		positionManager, err := ParseChecksumAddress(def.PositionManager)
		if err != nil {
			return nil, fmt.Errorf("%s position manager: %w", key, err)
		}
		factory, err := ParseChecksumAddress(def.Factory)
		if err != nil {
			return nil, fmt.Errorf("%s factory: %w", key, err)
		}

		assets := make(map[string]Asset, len(def.Assets))
		for symbol, cfg := range def.Assets {
			addr, err := ParseChecksumAddress(cfg.Address)
			if err != nil {
				return nil, fmt.Errorf("%s asset %s: %w", key, symbol, err)
			}
			if cfg.Decimals < 0 || cfg.Decimals > 77 {
				return nil, fmt.Errorf("%s asset %s: decimals %d out of range", key, symbol, cfg.Decimals)
			}
			symbol = strings.ToLower(symbol)
			assets[symbol] = Asset{Symbol: symbol, Address: addr, Decimals: cfg.Decimals}
		}

		r.deployments[key] = Deployment{
			Key:             key,
			ChainID:         def.ChainID,
			PositionManager: positionManager,
			Factory:         factory,
			assets:          assets,
		}
		if def.ChainID != "" {
			if other, ok := r.byChainID[def.ChainID]; ok {
				return nil, fmt.Errorf("chain id %s registered by both %s and %s", def.ChainID, other, key)
			}
			r.byChainID[def.ChainID] = key
		}
		for _, alias := range def.Aliases {
			r.byAlias[alias] = key
		}
	}

	return r, nil
}

// Resolve finds the deployment for a wallet network. The chain id wins over
// the network id, so providers that report an unusual network name still
// resolve by chain.
func (r *Registry) Resolve(chainID, networkID string) (Deployment, error) {
	if key, ok := r.byChainID[chainID]; ok && chainID != "" {
		return r.deployments[key], nil
	}
	if d, ok := r.deployments[networkID]; ok {
		return d, nil
	}
	if key, ok := r.byAlias[networkID]; ok {
		return r.deployments[key], nil
	}
	return Deployment{}, fmt.Errorf("%w: %s", ErrUnknownNetwork, networkID)
}

// Supports reports whether a deployment is registered for the network.
func (r *Registry) Supports(chainID, networkID string) bool {
	_, err := r.Resolve(chainID, networkID)
	return err == nil
}

// ParseChecksumAddress parses a hex address. Mixed-case input must carry a
// valid EIP-55 checksum; all-lower and all-upper input is accepted as is.
func ParseChecksumAddress(value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid address: %q", value)
	}
	addr := common.HexToAddress(value)

	body := value
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		body = body[2:]
	}
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return addr, nil
	}
	if addr.Hex()[2:] != body {
		return common.Address{}, fmt.Errorf("invalid checksum for address %s", value)
	}
	return addr, nil
}
