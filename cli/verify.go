// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cli

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/anchorproject/anchor-core/chainservice"
	"github.com/anchorproject/anchor-core/mmr"
)

// NewVerifyCmd returns the verify cmd, which proves a committed manifest's inclusion
// under the latest manifest root
func NewVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify HEIGHT",
		Short: "Prove a block's manifest against the latest manifest root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			height, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return err
			}
			return withChainService(cmd, func(cs *chainservice.ChainService) error {
				_, state, ok, err := cs.Store().GetLatest()
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("anchor store is empty, run anchorctl genesis first")
				}
				m, leafIdx, err := cs.Store().GetManifest(height)
				if err != nil {
					return err
				}
				leafCount := state.ManifestLeafCount()
				leaves, err := cs.Store().ManifestLeaves(leafCount)
				if err != nil {
					return err
				}
				proof, err := mmr.GenProof(leaves, leafIdx)
				if err != nil {
					return err
				}
				root := state.ManifestRoot()
				if err := mmr.VerifyProof(root, m.Hash(), leafIdx, leafCount, proof); err != nil {
					return errors.Wrapf(err, "manifest at height %d does not verify", height)
				}
				cmd.Printf("manifest %s verified at leaf %d under root %s\n",
					m.Hash().Hex(), leafIdx, root.Hex())
				return nil
			})
		},
	}
}
