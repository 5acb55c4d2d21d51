package cli

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/mrz1836/crossdrop/internal/chain/evm"
	"github.com/mrz1836/crossdrop/internal/config"
	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	deployNetwork    string
	deployArtifact   string
	deployGateway    string
	deployGasService string
)

// deployCmd deploys the Airdrop contract.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var deployCmd = &cobra.Command{
	Use:     "deploy",
	Short:   "Deploy the Airdrop contract",
	GroupID: groupOps,
	Long: `Deploy the compiled Airdrop contract from a Hardhat artifact, passing the
Axelar gateway and gas service addresses to its constructor.

Run it once per chain. The result is appended to deployments.json in the
crossdrop home directory; set source.contract and destination.contract to the
printed addresses.`,
	Example: `  crossdrop deploy
  crossdrop deploy --network avalanche
  crossdrop deploy --artifact ./artifacts/contracts/Airdrop.sol/Airdrop.json`,
	RunE: runDeploy,
}

// deployListCmd lists recorded deployments.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var deployListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded deployments",
	Long:  `Show every deployment recorded in deployments.json.`,
	Example: `  crossdrop deploy list
  crossdrop deploy list -o json`,
	RunE: runDeployList,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.AddCommand(deployListCmd)

	deployCmd.Flags().StringVar(&deployNetwork, "network", "", "network to deploy on (default from deploy.network)")
	deployCmd.Flags().StringVar(&deployArtifact, "artifact", "", "Hardhat artifact JSON (default from deploy.artifact)")
	deployCmd.Flags().StringVar(&deployGateway, "gateway", "", "Axelar gateway address (default from deploy.gateway)")
	deployCmd.Flags().StringVar(&deployGasService, "gas-service", "", "Axelar gas service address (default from deploy.gas_service)")
	_ = deployCmd.RegisterFlagCompletionFunc("network", completeNetworkFlag)
}

func runDeploy(cmd *cobra.Command, _ []string) error {
	network := firstNonEmpty(deployNetwork, cfg.Deploy.Network)
	artifactPath := config.ExpandHome(firstNonEmpty(deployArtifact, cfg.Deploy.Artifact))

	gateway, err := deployAddress("gateway", firstNonEmpty(deployGateway, cfg.Deploy.Gateway))
	if err != nil {
		return err
	}
	gasService, err := deployAddress("gas-service", firstNonEmpty(deployGasService, cfg.Deploy.GasService))
	if err != nil {
		return err
	}

	art, err := evm.LoadArtifact(artifactPath)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, cfg.Tx.ReceiptTimeout)
	defer cancel()

	deployer, err := newDeployerFn(ctx, cmdCtx, network)
	if err != nil {
		return err
	}

	formatter.Infof("Deploying %s to %s...", art.ContractName, network)
	res, err := deployer.Deploy(ctx, art, gateway, gasService)
	if err != nil {
		return err
	}
	return formatter.Print(newDeployView(res))
}

func runDeployList(_ *cobra.Command, _ []string) error {
	list, err := cmdCtx.DeployStore().List()
	if err != nil {
		return err
	}
	return formatter.Print(deploymentsView(list))
}

func deployAddress(flag, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, droperr.WithSuggestion(
			droperr.WithDetails(droperr.ErrInvalidAddress, map[string]string{"flag": "--" + flag, "address": value}),
			"pass a 0x-prefixed 20-byte address",
		)
	}
	return common.HexToAddress(value), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
