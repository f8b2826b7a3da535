package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/state"
)

func openStore() (*state.FileStore, error) {
	path, err := state.ResolvePath(stateFile, localChain)
	if err != nil {
		return nil, fmt.Errorf("resolve state file: %w", err)
	}
	if chainName == "" || chainID == "" {
		return nil, errors.New("--chain-name and --chain-id are required")
	}
	return state.NewFileStore(path, chainName, chainID, deploymentID, localChain, readOnly), nil
}

func NewAddressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Get, set or remove a contract's recorded address",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <contract-id>",
			Short: "Print the address recorded for contract-id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openStore()
				if err != nil {
					return err
				}
				addr, err := s.GetAddress(args[0])
				if err != nil {
					return err
				}
				fmt.Println(addr)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <contract-id> <address>",
			Short: "Record an address for contract-id",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openStore()
				if err != nil {
					return err
				}
				return s.SetAddress(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "rm <contract-id>",
			Short: "Remove the address recorded for contract-id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openStore()
				if err != nil {
					return err
				}
				return s.RemoveAddress(args[0])
			},
		},
	)
	return cmd
}

func NewCodeIDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code-id",
		Short: "Get, set or remove a contract's recorded code-id",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <contract-id>",
			Short: "Print the code-id recorded for contract-id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openStore()
				if err != nil {
					return err
				}
				codeID, err := s.GetCodeID(args[0])
				if err != nil {
					return err
				}
				fmt.Println(codeID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <contract-id> <code-id>",
			Short: "Record a code-id for contract-id",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openStore()
				if err != nil {
					return err
				}
				var codeID uint64
				if _, err := fmt.Sscanf(args[1], "%d", &codeID); err != nil {
					return fmt.Errorf("invalid code-id %q: %w", args[1], err)
				}
				return s.SetCodeID(args[0], codeID)
			},
		},
		&cobra.Command{
			Use:   "rm <contract-id>",
			Short: "Remove the code-id recorded for contract-id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openStore()
				if err != nil {
					return err
				}
				return s.RemoveCodeID(args[0])
			},
		},
	)
	return cmd
}

func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every recorded address and code-id for this chain/deployment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			addrs, err := s.GetAllAddresses()
			if err != nil {
				return err
			}
			codeIDs, err := s.GetAllCodeIDs()
			if err != nil {
				return err
			}
			fmt.Println("addresses:")
			for id, addr := range addrs {
				fmt.Printf("  %s: %s\n", id, addr)
			}
			fmt.Println("code ids:")
			for id, codeID := range codeIDs {
				fmt.Printf("  %s: %d\n", id, codeID)
			}
			return nil
		},
	}
}

func NewFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Clear every recorded address and code-id for this chain/deployment (local chains only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			return s.Flush()
		},
	}
}
