package globaldb

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// EthereumIdentifierPrefix is prepended to a checksummed token address to form its asset identifier.
	EthereumIdentifierPrefix = "_ceth_"
	// NFTDirective prefixes synthetic NFT identifiers which never enter the catalog.
	NFTDirective = "_nft_"
)

// IdentifierMapper converts between token addresses and asset identifiers.
// Implementations must be injective: two different addresses never map to the same identifier.
type IdentifierMapper interface {
	Identifier(address string) string
	Address(identifier string) (string, bool)
}

// EthereumPrefixMapper maps an address to Prefix+address.
type EthereumPrefixMapper struct {
	Prefix string
}

var DefaultIdentifierMapper IdentifierMapper = EthereumPrefixMapper{Prefix: EthereumIdentifierPrefix}

func (m EthereumPrefixMapper) Identifier(address string) string {
	return m.Prefix + address
}

func (m EthereumPrefixMapper) Address(identifier string) (string, bool) {
	if !strings.HasPrefix(identifier, m.Prefix) {
		return "", false
	}
	address := strings.TrimPrefix(identifier, m.Prefix)
	if !common.IsHexAddress(address) {
		return "", false
	}
	return address, true
}

// ChecksumAddress validates a hex address and returns it in EIP-55 form.
func ChecksumAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q is not an ethereum address", ErrInput, address)
	}
	return common.HexToAddress(address).Hex(), nil
}
