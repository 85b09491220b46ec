// Package deploy publishes the staking contract wired to an existing NFT collection and reward token.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/screwyprof/glanger/pkg/evm"
)

// ErrZeroAddress is returned when a constructor address is missing
var ErrZeroAddress = errors.New("contract address must not be zero")

// Deployer broadcasts contract creations for a single account
type Deployer interface {
	Address() common.Address
	Balance(ctx context.Context) (*big.Int, error)
	Deploy(ctx context.Context, artifact evm.Artifact, args ...any) (evm.Deployment, error)
	WaitDeployed(ctx context.Context, dep evm.Deployment) (common.Address, error)
}

// Contracts are the constructor arguments of the staking contract
type Contracts struct {
	NFT  common.Address
	Coin common.Address
}

// Run deploys artifact with the collection and reward token addresses and waits until it is mined.
// Progress is written to out one line at a time.
func Run(ctx context.Context, d Deployer, artifact evm.Artifact, contracts Contracts, out io.Writer) (common.Address, error) {
	if contracts.NFT == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: nft collection", ErrZeroAddress)
	}
	if contracts.Coin == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: reward token", ErrZeroAddress)
	}

	if _, err := fmt.Fprintln(out, "Deploying contracts with the account:", d.Address().Hex()); err != nil {
		return common.Address{}, err
	}

	balance, err := d.Balance(ctx)
	if err != nil {
		return common.Address{}, err
	}
	if _, err := fmt.Fprintln(out, "Account balance:", balance.String()); err != nil {
		return common.Address{}, err
	}

	dep, err := d.Deploy(ctx, artifact, contracts.NFT, contracts.Coin)
	if err != nil {
		return common.Address{}, err
	}
	if _, err := fmt.Fprintln(out, "Token address:", dep.Address.Hex()); err != nil {
		return common.Address{}, err
	}

	slog.InfoContext(ctx, "Waiting for deployment to be mined",
		slog.String("contract", artifact.ContractName),
		slog.String("tx", dep.Tx.Hash().Hex()),
	)

	return d.WaitDeployed(ctx, dep)
}
