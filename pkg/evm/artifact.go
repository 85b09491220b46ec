package evm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact errors
var (
	ErrArtifactRead     = errors.New("failed to read contract artifact")
	ErrArtifactDecode   = errors.New("failed to decode contract artifact")
	ErrArtifactABI      = errors.New("invalid contract ABI")
	ErrArtifactBytecode = errors.New("invalid contract bytecode")
)

// Artifact is a compiled contract ready for deployment
type Artifact struct {
	ContractName string
	ABI          abi.ABI
	Bytecode     []byte
}

// hardhatArtifact mirrors the JSON written by the hardhat compiler
type hardhatArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// LoadArtifact reads a hardhat artifact file
func LoadArtifact(path string) (Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrArtifactRead, err)
	}
	return ParseArtifact(raw)
}

// ParseArtifact decodes a hardhat artifact document
func ParseArtifact(raw []byte) (Artifact, error) {
	var doc hardhatArtifact
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrArtifactDecode, err)
	}

	parsedABI, err := abi.JSON(bytes.NewReader(doc.ABI))
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrArtifactABI, err)
	}

	code, err := hexutil.Decode(doc.Bytecode)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrArtifactBytecode, err)
	}
	if len(code) == 0 {
		return Artifact{}, fmt.Errorf("%w: %s has no bytecode (abstract contract or interface?)", ErrArtifactBytecode, doc.ContractName)
	}

	return Artifact{
		ContractName: doc.ContractName,
		ABI:          parsedABI,
		Bytecode:     code,
	}, nil
}
