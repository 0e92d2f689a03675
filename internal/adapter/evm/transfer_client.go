package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/RSAC2025/rsac/config"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const erc20TransferABI = `[{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}]`

// Backend is the subset of the Ethereum RPC the transfer client uses.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error
}

// TransferClient implements ports.AssetTransferClient by submitting ERC-20
// transfer transactions from the treasury hot wallet. Amounts arrive in the
// token's human unit and are scaled to base units here.
type TransferClient struct {
	backend  Backend
	token    common.Address
	decimals int32
	gasLimit uint64
	chainID  *big.Int
	key      *ecdsa.PrivateKey
	from     common.Address
	abi      abi.ABI
	log      zerolog.Logger
}

// Dial connects to the configured RPC endpoint and builds a TransferClient.
func Dial(cfg config.ChainConfig, log zerolog.Logger) (*TransferClient, error) {
	endpoint := strings.TrimSpace(cfg.RPCEndpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("chain rpc endpoint required")
	}
	client, err := ethclient.Dial(endpoint)
	if err != nil {
		return nil, fmt.Errorf("dialing chain rpc: %w", err)
	}
	return New(client, cfg, log)
}

// New builds a TransferClient on an existing backend.
func New(backend Backend, cfg config.ChainConfig, log zerolog.Logger) (*TransferClient, error) {
	if !common.IsHexAddress(cfg.TokenContract) {
		return nil, fmt.Errorf("invalid token contract address %q", cfg.TokenContract)
	}
	key, err := gethcrypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing hot wallet key: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		return nil, fmt.Errorf("parsing erc20 abi: %w", err)
	}

	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = 90000
	}

	return &TransferClient{
		backend:  backend,
		token:    common.HexToAddress(cfg.TokenContract),
		decimals: cfg.TokenDecimals,
		gasLimit: gasLimit,
		chainID:  big.NewInt(cfg.ChainID),
		key:      key,
		from:     gethcrypto.PubkeyToAddress(key.PublicKey),
		abi:      parsed,
		log:      log,
	}, nil
}

// ValidAddress reports whether destination is a well-formed hex address.
func (c *TransferClient) ValidAddress(destination string) bool {
	return common.IsHexAddress(destination)
}

// Transfer submits an ERC-20 transfer of amount (human units) to destination
// and returns the transaction hash.
func (c *TransferClient) Transfer(ctx context.Context, destination string, amount decimal.Decimal) (string, error) {
	if !common.IsHexAddress(destination) {
		return "", fmt.Errorf("invalid destination address %q", destination)
	}
	value, err := toBaseUnits(amount, c.decimals)
	if err != nil {
		return "", err
	}

	data, err := c.abi.Pack("transfer", common.HexToAddress(destination), value)
	if err != nil {
		return "", fmt.Errorf("packing transfer call: %w", err)
	}

	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return "", fmt.Errorf("fetching nonce: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching gas price: %w", err)
	}

	tx := gethtypes.NewTransaction(nonce, c.token, big.NewInt(0), c.gasLimit, gasPrice, data)
	signed, err := gethtypes.SignTx(tx, gethtypes.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return "", fmt.Errorf("signing transfer: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("submitting transfer: %w", err)
	}

	hash := signed.Hash().Hex()
	c.log.Info().
		Str("to", destination).
		Str("amount", amount.String()).
		Str("tx_hash", hash).
		Msg("erc20 transfer submitted")
	return hash, nil
}

// toBaseUnits scales a human-unit amount to the token's integer base units.
// Amounts with more fractional digits than the token supports are rejected
// rather than silently truncated.
func toBaseUnits(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("transfer amount must be positive, got %s", amount)
	}
	scaled := amount.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %s exceeds token precision of %d decimals", amount, decimals)
	}
	return scaled.BigInt(), nil
}
