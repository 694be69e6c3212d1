package payment

import (
	"fmt"
	"math/big"
	"strings"
)

// Network 支持的结算网络及其 USDC 资产
type Network struct {
	Name         string
	ChainID      int64
	Asset        string // ERC-20 合约地址
	AssetName    string // EIP-712 domain name
	AssetVersion string // EIP-712 domain version
	Decimals     int
}

var networks = map[string]Network{
	"base": {
		Name:         "base",
		ChainID:      8453,
		Asset:        "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		AssetName:    "USD Coin",
		AssetVersion: "2",
		Decimals:     6,
	},
	"base-sepolia": {
		Name:         "base-sepolia",
		ChainID:      84532,
		Asset:        "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		AssetName:    "USDC",
		AssetVersion: "2",
		Decimals:     6,
	},
}

// LookupNetwork 按名称查找网络
func LookupNetwork(name string) (Network, error) {
	n, ok := networks[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Network{}, fmt.Errorf("unsupported network: %q", name)
	}
	return n, nil
}

// ParsePrice 将美元价格（如 "$0.1"）换算为资产最小单位的整数字符串
func ParsePrice(price string, decimals int) (string, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(price), "$")
	if raw == "" || strings.ContainsAny(raw, "/eE") {
		return "", fmt.Errorf("invalid price: %q", price)
	}

	amount, ok := new(big.Rat).SetString(raw)
	if !ok {
		return "", fmt.Errorf("invalid price: %q", price)
	}
	if amount.Sign() <= 0 {
		return "", fmt.Errorf("price must be positive: %q", price)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	amount.Mul(amount, new(big.Rat).SetInt(scale))
	if !amount.IsInt() {
		return "", fmt.Errorf("price %q exceeds asset precision of %d decimals", price, decimals)
	}
	return amount.Num().String(), nil
}
