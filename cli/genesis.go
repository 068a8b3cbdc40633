// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cli

import (
	"github.com/spf13/cobra"

	"github.com/anchorproject/anchor-core/chainservice"
)

// NewGenesisCmd returns the genesis cmd, which initializes the anchor store with the
// genesis state from the config
func NewGenesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genesis",
		Short: "Initialize the anchor store with the genesis state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withChainService(cmd, func(cs *chainservice.ChainService) error {
				state, err := cs.InitGenesis()
				if err != nil {
					return err
				}
				view := state.View()
				cmd.Printf("genesis state written at height %d, block %s\n", view.Height, view.BlockID)
				return nil
			})
		},
	}
}
