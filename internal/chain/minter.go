// Package chain submits skill-passport mints to the Neo N3 network.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/config"
	"github.com/spec-kit/skilllink-support/internal/domain"
)

// MintMethod is the contract method invoked as mint(to, metadata).
const MintMethod = "mint"

// ErrInvalidRecipient is returned when the wallet address cannot be decoded.
var ErrInvalidRecipient = errors.New("invalid recipient address")

// Invoker signs and sends a contract call. *actor.Actor satisfies it.
type Invoker interface {
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
}

// Minter submits mint transactions signed by the service account.
type Minter struct {
	invoker  Invoker
	contract util.Uint160
	client   *rpcclient.Client
	logger   *zap.Logger
}

// NewMinter dials the RPC node and prepares a signing actor for the configured key.
func NewMinter(ctx context.Context, cfg config.ChainConfig, logger *zap.Logger) (*Minter, error) {
	contract, err := ParseContractHash(cfg.ContractHash)
	if err != nil {
		return nil, err
	}
	priv, err := ParseSignerKey(cfg.SignerKey)
	if err != nil {
		return nil, err
	}

	client, err := rpcclient.New(ctx, cfg.RPCURL, rpcclient.Options{
		DialTimeout:    10 * time.Second,
		RequestTimeout: 20 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("rpc client: %w", err)
	}
	if err := client.Init(); err != nil {
		client.Close()
		return nil, fmt.Errorf("rpc init: %w", err)
	}

	account := wallet.NewAccountFromPrivateKey(priv)
	act, err := actor.NewSimple(client, account)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("signing actor: %w", err)
	}

	logger.Info("passport minter ready",
		zap.String("rpc", cfg.RPCURL),
		zap.String("signer", account.Address),
		zap.String("contract", contract.StringLE()))

	m := NewMinterWithInvoker(act, contract, logger)
	m.client = client
	return m, nil
}

// NewMinterWithInvoker builds a minter around an existing invoker.
func NewMinterWithInvoker(invoker Invoker, contract util.Uint160, logger *zap.Logger) *Minter {
	return &Minter{invoker: invoker, contract: contract, logger: logger}
}

// Mint sends mint(to, metadata) and returns once the node accepts the
// transaction. It does not wait for block inclusion.
func (m *Minter) Mint(ctx context.Context, to string, metadata json.RawMessage) (*domain.MintResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recipient, err := ParseRecipient(to)
	if err != nil {
		return nil, err
	}

	txHash, validUntil, err := m.invoker.SendCall(m.contract, MintMethod, recipient, string(metadata))
	if err != nil {
		return nil, fmt.Errorf("send mint: %w", err)
	}

	result := &domain.MintResult{
		TransactionHash:  "0x" + txHash.StringLE(),
		ValidUntilBlock:  validUntil,
		ContractHash:     "0x" + m.contract.StringLE(),
		RecipientAddress: address.Uint160ToString(recipient),
	}
	m.logger.Info("passport mint submitted",
		zap.String("tx_hash", result.TransactionHash),
		zap.String("to", result.RecipientAddress),
		zap.Uint32("valid_until_block", validUntil))
	return result, nil
}

// Close releases the RPC connection.
func (m *Minter) Close() {
	if m != nil && m.client != nil {
		m.client.Close()
	}
}

// ParseRecipient accepts a Neo N3 address or a 0x-prefixed little-endian script hash.
func ParseRecipient(to string) (util.Uint160, error) {
	to = strings.TrimSpace(to)
	if strings.HasPrefix(to, "0x") || strings.HasPrefix(to, "0X") {
		u, err := util.Uint160DecodeStringLE(to[2:])
		if err != nil {
			return util.Uint160{}, fmt.Errorf("%w %q: %v", ErrInvalidRecipient, to, err)
		}
		return u, nil
	}
	u, err := address.StringToUint160(to)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("%w %q: %v", ErrInvalidRecipient, to, err)
	}
	return u, nil
}

// ParseContractHash decodes a little-endian contract script hash with optional 0x prefix.
func ParseContractHash(hash string) (util.Uint160, error) {
	hash = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(hash), "0x"), "0X")
	u, err := util.Uint160DecodeStringLE(hash)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("invalid contract hash: %w", err)
	}
	return u, nil
}

// ParseSignerKey accepts a hex-encoded private key or a WIF string.
func ParseSignerKey(key string) (*keys.PrivateKey, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "0x")
	if priv, err := keys.NewPrivateKeyFromHex(key); err == nil {
		return priv, nil
	}
	priv, err := keys.NewPrivateKeyFromWIF(key)
	if err != nil {
		return nil, errors.New("CHAIN_SIGNER_KEY is neither a hex private key nor WIF")
	}
	return priv, nil
}
