// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package cli

import (
	"encoding/hex"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/anchorproject/anchor-core/chainservice"
)

// NewManifestCmd returns the manifest cmd, which prints the committed manifest of a
// given block height
func NewManifestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manifest HEIGHT",
		Short: "Show the committed manifest of a block height",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			height, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return err
			}
			return withChainService(cmd, func(cs *chainservice.ChainService) error {
				m, leafIdx, err := cs.Store().GetManifest(height)
				if err != nil {
					return err
				}
				cmd.Printf("leaf index:    %d\n", leafIdx)
				cmd.Printf("hash:          %s\n", m.Hash().Hex())
				cmd.Printf("block root:    %s\n", m.BlockRoot)
				cmd.Printf("wtx root:      %s\n", m.WtxRoot)
				cmd.Printf("logs:          %d\n", len(m.Logs))
				for i, e := range m.Logs {
					cmd.Printf("  [%d] subprotocol=%d type=%d data=%s\n",
						i, e.Source, e.Type, hex.EncodeToString(e.Data))
				}
				return nil
			})
		},
	}
}
