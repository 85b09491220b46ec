package deploy_test

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind/backends"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/glanger/deploy"
	"github.com/screwyprof/glanger/pkg/evm"
)

// stakingArtifact has a two address constructor and init code that deploys a single STOP opcode
const stakingArtifact = `{
	"contractName": "GlangerStaking",
	"abi": [{
		"type": "constructor",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "_nftCollection", "type": "address", "internalType": "contract IERC721"},
			{"name": "_rewardsToken", "type": "address", "internalType": "contract IERC20"}
		]
	}],
	"bytecode": "0x6001600c60003960016000f300"
}`

const simulatedChainID = 1337

var contracts = deploy.Contracts{
	NFT:  common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
	Coin: common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"),
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("it deploys the contract and prints the account, balance and address", func(t *testing.T) {
		t.Parallel()

		// Arrange
		d, sim, funds := simulatedDeployer(t)
		var out bytes.Buffer

		// Act
		addr, err := deploy.Run(t.Context(), d, parseArtifact(t), contracts, &out)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, crypto.CreateAddress(d.Address(), 0), addr)
		assert.Equal(t,
			"Deploying contracts with the account: "+d.Address().Hex()+"\n"+
				"Account balance: "+funds.String()+"\n"+
				"Token address: "+addr.Hex()+"\n",
			out.String())

		code, err := sim.CodeAt(t.Context(), addr, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, code)
	})

	t.Run("it rejects a missing collection address", func(t *testing.T) {
		t.Parallel()

		// Arrange
		d, _, _ := simulatedDeployer(t)
		var out bytes.Buffer

		// Act
		_, err := deploy.Run(t.Context(), d, parseArtifact(t), deploy.Contracts{Coin: contracts.Coin}, &out)

		// Assert
		require.ErrorIs(t, err, deploy.ErrZeroAddress)
		assert.Empty(t, out.String())
	})

	t.Run("it stops before deploying when the balance is unavailable", func(t *testing.T) {
		t.Parallel()

		// Arrange
		errBalance := errors.New("rpc down")
		d := &stubDeployer{balanceErr: errBalance}
		var out bytes.Buffer

		// Act
		_, err := deploy.Run(t.Context(), d, parseArtifact(t), contracts, &out)

		// Assert
		require.ErrorIs(t, err, errBalance)
		assert.False(t, d.deployed)
		assert.Equal(t, "Deploying contracts with the account: "+d.Address().Hex()+"\n", out.String())
	})

	t.Run("it reports deployment failures", func(t *testing.T) {
		t.Parallel()

		// Arrange
		d := &stubDeployer{deployErr: evm.ErrDeployFailed}
		var out bytes.Buffer

		// Act
		_, err := deploy.Run(t.Context(), d, parseArtifact(t), contracts, &out)

		// Assert
		require.ErrorIs(t, err, evm.ErrDeployFailed)
		assert.NotContains(t, out.String(), "Token address")
	})
}

// committingDeployer mines a block after every broadcast so WaitDeployed returns
type committingDeployer struct {
	*evm.Deployer
	sim *backends.SimulatedBackend
}

func (d committingDeployer) Deploy(ctx context.Context, artifact evm.Artifact, args ...any) (evm.Deployment, error) {
	dep, err := d.Deployer.Deploy(ctx, artifact, args...)
	if err != nil {
		return evm.Deployment{}, err
	}
	d.sim.Commit()
	return dep, nil
}

type stubDeployer struct {
	balanceErr error
	deployErr  error
	deployed   bool
}

func (d *stubDeployer) Address() common.Address {
	return common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
}

func (d *stubDeployer) Balance(context.Context) (*big.Int, error) {
	if d.balanceErr != nil {
		return nil, d.balanceErr
	}
	return big.NewInt(1), nil
}

func (d *stubDeployer) Deploy(context.Context, evm.Artifact, ...any) (evm.Deployment, error) {
	d.deployed = true
	return evm.Deployment{}, d.deployErr
}

func (d *stubDeployer) WaitDeployed(context.Context, evm.Deployment) (common.Address, error) {
	return common.Address{}, nil
}

func simulatedDeployer(t *testing.T) (committingDeployer, *backends.SimulatedBackend, *big.Int) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	funds := new(big.Int).Mul(big.NewInt(10_000), big.NewInt(1e18))
	sim := backends.NewSimulatedBackend(core.GenesisAlloc{
		crypto.PubkeyToAddress(key.PublicKey): {Balance: funds},
	}, 10_000_000)
	t.Cleanup(func() { _ = sim.Close() })

	return committingDeployer{Deployer: evm.NewDeployer(sim, key, big.NewInt(simulatedChainID)), sim: sim}, sim, funds
}

func parseArtifact(t *testing.T) evm.Artifact {
	t.Helper()

	artifact, err := evm.ParseArtifact([]byte(stakingArtifact))
	require.NoError(t, err)
	return artifact
}
