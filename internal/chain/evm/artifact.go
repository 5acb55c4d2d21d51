package evm

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"

	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

//nolint:gochecknoglobals // jsoniter configured once, same as encoding/json
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Artifact is a compiled contract as emitted by Hardhat.
type Artifact struct {
	ContractName string
	SourceName   string
	ABI          abi.ABI
	Bytecode     []byte
}

type hardhatArtifact struct {
	Format       string              `json:"_format"`
	ContractName string              `json:"contractName"`
	SourceName   string              `json:"sourceName"`
	ABI          jsoniter.RawMessage `json:"abi"`
	Bytecode     string              `json:"bytecode"`
}

// LoadArtifact reads a Hardhat artifact JSON file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: artifact path comes from config or flag
	if err != nil {
		return nil, droperr.WithCause(droperr.WithDetails(droperr.ErrArtifactInvalid, map[string]string{"path": path}), err)
	}
	art, err := ParseArtifact(data)
	if err != nil {
		return nil, droperr.Wrap(err, "loading %s", path)
	}
	return art, nil
}

// ParseArtifact decodes Hardhat artifact JSON.
func ParseArtifact(data []byte) (*Artifact, error) {
	var raw hardhatArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, droperr.WithCause(droperr.ErrArtifactInvalid, err)
	}

	if len(raw.ABI) == 0 {
		return nil, artifactInvalid("missing abi")
	}
	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, droperr.WithCause(artifactInvalid("abi does not parse"), err)
	}

	code := strings.TrimSpace(raw.Bytecode)
	if code == "" || code == "0x" {
		return nil, artifactInvalid("missing bytecode (abstract contract or interface?)")
	}
	if strings.Contains(code, "__$") {
		return nil, artifactInvalid("bytecode has unlinked libraries")
	}
	bytecode, err := hexutil.Decode(code)
	if err != nil {
		return nil, droperr.WithCause(artifactInvalid("bytecode is not hex"), err)
	}

	return &Artifact{
		ContractName: raw.ContractName,
		SourceName:   raw.SourceName,
		ABI:          parsed,
		Bytecode:     bytecode,
	}, nil
}

// InitCode appends the ABI-encoded constructor arguments for
// (gateway, gasService) to the bytecode. Artifacts without a constructor
// in their ABI are encoded with the built-in Airdrop constructor.
func (a *Artifact) InitCode(gateway, gasService common.Address) ([]byte, error) {
	if len(a.ABI.Constructor.Inputs) == 0 {
		return DeployData(a.Bytecode, gateway, gasService)
	}
	if len(a.ABI.Constructor.Inputs) != 2 {
		return nil, artifactInvalid(fmt.Sprintf("constructor takes %d arguments, want gateway and gas service",
			len(a.ABI.Constructor.Inputs)))
	}

	args, err := a.ABI.Pack("", gateway, gasService)
	if err != nil {
		return nil, droperr.WithCause(artifactInvalid("constructor arguments do not encode"), err)
	}
	return append(append([]byte{}, a.Bytecode...), args...), nil
}

func artifactInvalid(reason string) error {
	return droperr.WithDetails(droperr.ErrArtifactInvalid, map[string]string{"reason": reason})
}
