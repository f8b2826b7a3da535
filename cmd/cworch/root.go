package main

import (
	"github.com/spf13/cobra"
)

var (
	stateFile    string
	chainName    string
	chainID      string
	deploymentID string
	localChain   bool
	readOnly     bool
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cworch",
		Short: "Inspect and edit cw-orch-go's persistent deployment state",
		Long: `cworch operates on the same state file a cw-orch-go Contract's
FileStore reads and writes: the (chain_name, chain_id, deployment_id)
mapping of contract-id -> address and contract-id -> code-id.

Example:
  cworch --state-file ./state.json --chain-name juno --chain-id juno-1 address get counter`,
	}

	cmd.PersistentFlags().StringVar(&stateFile, "state-file", "state.json",
		"path to the state file (resolved the same way as a Contract's state_file setting)")
	cmd.PersistentFlags().StringVar(&chainName, "chain-name", "",
		"chain name bucket (required)")
	cmd.PersistentFlags().StringVar(&chainID, "chain-id", "",
		"chain id bucket (required)")
	cmd.PersistentFlags().StringVar(&deploymentID, "deployment-id", "default",
		"deployment id to read/write addresses under")
	cmd.PersistentFlags().BoolVar(&localChain, "local", false,
		"mark the chain as local (required for 'flush')")
	cmd.PersistentFlags().BoolVar(&readOnly, "read-only", false,
		"open the state file read-only")

	cmd.MarkPersistentFlagRequired("chain-name")
	cmd.MarkPersistentFlagRequired("chain-id")

	cmd.AddCommand(
		NewAddressCmd(),
		NewCodeIDCmd(),
		NewListCmd(),
		NewFlushCmd(),
	)

	return cmd
}
