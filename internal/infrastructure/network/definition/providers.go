package networkdefinition

import (
	"fmt"
	"strings"

	"wallet_connector/internal/app/port"
	"wallet_connector/internal/domain/entity"
)

// NetworkDefinitionProvider is the static network registry.
type NetworkDefinitionProvider struct {
	logger  port.Logger
	byTag   map[string]entity.NetworkDefinition
	ordered []entity.NetworkDefinition
}

// Predefined network definitions
var ( //nolint:gochecknoglobals // Global for definitions
	BNBTestnet = entity.NetworkDefinition{
		ChainID:          97,
		Name:             "BSC Testnet",
		Identifier:       "bnb",
		NativeSymbol:     "BNB",
		Decimals:         18,
		PrimaryRPCURL:    "https://data-seed-prebsc-1-s1.binance.org:8545",
		BlockExplorerURL: "https://testnet.bscscan.com/",
	}
	Ropsten = entity.NetworkDefinition{
		ChainID:          3,
		Name:             "Ropsten",
		Identifier:       "eth",
		NativeSymbol:     "ETH",
		Decimals:         18,
		PrimaryRPCURL:    "https://mainnet.infura.io/v3/9aa3d95b3bc440fa88ea12eaa4456161", // так было в исходной таблице, хотя это mainnet endpoint
		BlockExplorerURL: "https://ropsten.etherscan.io",
	}
)

// builtinDefinitions keeps registration order for All().
var builtinDefinitions = []entity.NetworkDefinition{BNBTestnet, Ropsten} //nolint:gochecknoglobals

// NewNetworkDefinitionProvider creates the registry from the built-in table plus extra definitions from config.
// Extra entries that reuse a known tag or lack a chain id are skipped with a warning.
func NewNetworkDefinitionProvider(log port.Logger, extra []entity.NetworkDefinition) *NetworkDefinitionProvider {
	p := &NetworkDefinitionProvider{
		logger: log,
		byTag:  make(map[string]entity.NetworkDefinition, len(builtinDefinitions)+len(extra)),
	}
	for _, def := range builtinDefinitions {
		p.add(def)
	}

	for _, def := range extra {
		def.Identifier = strings.ToLower(strings.TrimSpace(def.Identifier))
		if def.Identifier == "" || def.ChainID == 0 {
			p.logger.Warn("Network definition from config is missing identifier or chain id. Skipping.", "name", def.Name)
			continue
		}
		if strings.Contains(def.Identifier, "_") {
			p.logger.Warn(fmt.Sprintf("Network identifier '%s' contains '_' which is reserved for provider keys. Skipping.", def.Identifier))
			continue
		}
		if _, exists := p.byTag[def.Identifier]; exists {
			p.logger.Warn(fmt.Sprintf("Duplicate network identifier '%s' in config. Skipping.", def.Identifier))
			continue
		}
		if def.Decimals == 0 {
			def.Decimals = 18
		}
		p.add(def)
		p.logger.Debug(fmt.Sprintf("Network '%s' registered from config (ChainID: %d).", def.Name, def.ChainID))
	}

	p.logger.Info(fmt.Sprintf("NetworkDefinitionProvider initialized. Networks: %d", len(p.ordered)))
	return p
}

func (p *NetworkDefinitionProvider) add(def entity.NetworkDefinition) {
	p.byTag[def.Identifier] = def
	p.ordered = append(p.ordered, def)
}

// Describe returns the definition for networkTag.
func (p *NetworkDefinitionProvider) Describe(networkTag string) (entity.NetworkDefinition, error) {
	if p == nil {
		return entity.NetworkDefinition{}, fmt.Errorf("%w: %q", entity.ErrUnknownNetwork, networkTag)
	}
	def, ok := p.byTag[networkTag]
	if !ok {
		return entity.NetworkDefinition{}, fmt.Errorf("%w: %q", entity.ErrUnknownNetwork, networkTag)
	}
	return def, nil
}

// All returns a copy of every registered definition.
func (p *NetworkDefinitionProvider) All() []entity.NetworkDefinition {
	if p == nil {
		return []entity.NetworkDefinition{}
	}
	defsCopy := make([]entity.NetworkDefinition, len(p.ordered))
	copy(defsCopy, p.ordered)
	return defsCopy
}

// GetNetworkDefinitionByChainID returns a specific network definition by its chain ID.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	for _, def := range p.ordered {
		if def.ChainID == chainID {
			return def, true
		}
	}
	return entity.NetworkDefinition{}, false
}
