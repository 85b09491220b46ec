// Package evm deploys compiled contracts to an EVM chain over JSON-RPC.
package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Sentinel errors for deployment
var (
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrDialFailed        = errors.New("failed to connect to RPC node")
	ErrSignerFailed      = errors.New("failed to create transaction signer")
	ErrBalanceQuery      = errors.New("failed to query account balance")
	ErrDeployFailed      = errors.New("contract deployment failed")
	ErrNotMined          = errors.New("deployment was not mined")
)

// Dial retry settings
const (
	dialAttempts = 5
	dialDelay    = time.Second
)

// Backend is everything needed to deploy and confirm a contract
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Deployment is a contract creation that has been broadcast
type Deployment struct {
	Address common.Address
	Tx      *types.Transaction
}

// Deployer signs contract creations with a single key
type Deployer struct {
	backend Backend
	key     *ecdsa.PrivateKey
	chainID *big.Int
}

// NewDeployer creates a Deployer for the given chain
func NewDeployer(backend Backend, key *ecdsa.PrivateKey, chainID *big.Int) *Deployer {
	return &Deployer{
		backend: backend,
		key:     key,
		chainID: chainID,
	}
}

// ParsePrivateKey decodes a hex private key with or without the 0x prefix
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrivateKey, err)
	}
	return key, nil
}

// Dial connects to an RPC node, retrying until it answers with its chain id
func Dial(ctx context.Context, rawURL string) (*ethclient.Client, *big.Int, error) {
	type conn struct {
		client  *ethclient.Client
		chainID *big.Int
	}

	c, err := retry.DoWithData(
		func() (conn, error) {
			client, err := ethclient.DialContext(ctx, rawURL)
			if err != nil {
				return conn{}, err
			}
			chainID, err := client.ChainID(ctx)
			if err != nil {
				client.Close()
				return conn{}, err
			}
			return conn{client: client, chainID: chainID}, nil
		},
		retry.Context(ctx),
		retry.Attempts(dialAttempts),
		retry.Delay(dialDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.WarnContext(ctx, "RPC node not ready, retrying",
				slog.Uint64("attempt", uint64(n+1)),
				slog.Any("error", err))
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDialFailed, err)
	}
	return c.client, c.chainID, nil
}

// Address returns the deployer account
func (d *Deployer) Address() common.Address {
	return crypto.PubkeyToAddress(d.key.PublicKey)
}

// Balance returns the deployer balance in wei at the latest block
func (d *Deployer) Balance(ctx context.Context) (*big.Int, error) {
	balance, err := d.backend.BalanceAt(ctx, d.Address(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBalanceQuery, err)
	}
	return balance, nil
}

// Deploy broadcasts the contract creation with the given constructor arguments.
// It does not wait for the transaction to be mined.
func (d *Deployer) Deploy(ctx context.Context, artifact Artifact, args ...any) (Deployment, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(d.key, d.chainID)
	if err != nil {
		return Deployment{}, fmt.Errorf("%w: %w", ErrSignerFailed, err)
	}
	opts.Context = ctx

	addr, tx, _, err := bind.DeployContract(opts, artifact.ABI, artifact.Bytecode, d.backend, args...)
	if err != nil {
		return Deployment{}, fmt.Errorf("%w: %s: %w", ErrDeployFailed, artifact.ContractName, err)
	}

	return Deployment{Address: addr, Tx: tx}, nil
}

// WaitDeployed blocks until the deployment is mined and has code at its address
func (d *Deployer) WaitDeployed(ctx context.Context, dep Deployment) (common.Address, error) {
	addr, err := bind.WaitDeployed(ctx, d.backend, dep.Tx)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: tx %s: %w", ErrNotMined, dep.Tx.Hash().Hex(), err)
	}
	return addr, nil
}
