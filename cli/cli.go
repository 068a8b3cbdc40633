// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package cli implements anchorctl, the command-line interface for inspecting and
// maintaining a local anchor state store.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anchorproject/anchor-core/chainservice"
	"github.com/anchorproject/anchor-core/config"
	"github.com/anchorproject/anchor-core/pkg/log"
)

var _configPath string

// NewRootCmd returns the anchorctl root cmd
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "anchorctl",
		Short: "Command-line interface for the anchor state machine",
		Long:  `anchorctl inspects and maintains a local anchor state store.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return log.InitLoggers(cfg.Log, cfg.SubLogs)
		},
	}
	rootCmd.PersistentFlags().StringVar(&_configPath, "config", "", "path of the yaml config file")

	rootCmd.AddCommand(NewGenesisCmd())
	rootCmd.AddCommand(NewStateCmd())
	rootCmd.AddCommand(NewManifestCmd())
	rootCmd.AddCommand(NewVerifyCmd())

	return rootCmd
}

func loadConfig() (config.Config, error) {
	if _configPath == "" {
		return config.Default, nil
	}
	return config.New(_configPath)
}

// withChainService loads the config, assembles the chain service and runs the given
// function between Start and Stop.
func withChainService(cmd *cobra.Command, run func(cs *chainservice.ChainService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cs, err := chainservice.New(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := cs.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := cs.Stop(ctx); err != nil {
			cmd.PrintErrln("failed to stop chain service:", err)
		}
	}()
	return run(cs)
}
