// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cli

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/anchorproject/anchor-core/chainservice"
)

// NewStateCmd returns the state cmd, which prints the latest committed anchor state
func NewStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the latest committed anchor state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withChainService(cmd, func(cs *chainservice.ChainService) error {
				c, state, ok, err := cs.Store().GetLatest()
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("anchor store is empty, run anchorctl genesis first")
				}
				cmd.Printf("height:             %d\n", c.Height)
				cmd.Printf("block:              %s\n", c.BlockID)
				cmd.Printf("manifest root:      %s\n", state.ManifestRoot().Hex())
				cmd.Printf("manifest leaves:    %d\n", state.ManifestLeafCount())
				for _, id := range state.SubprotocolIDs() {
					sec, _ := state.Section(id)
					cmd.Printf("section %3d:        %s\n", id, hex.EncodeToString(sec))
				}
				return nil
			})
		},
	}
}
