// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package config

import (
	"encoding/hex"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
	uconfig "go.uber.org/config"

	"github.com/anchorproject/anchor-core/asm"
	"github.com/anchorproject/anchor-core/db"
	"github.com/anchorproject/anchor-core/l1"
	"github.com/anchorproject/anchor-core/pkg/log"
	"github.com/anchorproject/anchor-core/subprotocols/admin"
	"github.com/anchorproject/anchor-core/subprotocols/bridge"
	"github.com/anchorproject/anchor-core/subprotocols/checkpoint"
)

// IMPORTANT: to define a config, add a field or a new config type to the existing config
// types. In addition, provide the default value in Default.

// Chain is the chain-level configuration of one protocol instance
type Chain struct {
	// MagicHex is the hex encoding of the 4-byte instance magic
	MagicHex string `yaml:"magicHex"`
	// GenesisHeight is the L1 height the anchor chain starts from
	GenesisHeight uint64 `yaml:"genesisHeight"`
	// GenesisBlockID is the id of the L1 block at the genesis height
	GenesisBlockID string `yaml:"genesisBlockID"`
	// Checkpoint, Bridge and Admin carry the subprotocol genesis params
	Checkpoint checkpoint.Params `yaml:"checkpoint"`
	Bridge     bridge.Params     `yaml:"bridge"`
	Admin      admin.Params      `yaml:"admin"`
}

// Config is the root configuration
type Config struct {
	Chain Chain            `yaml:"chain"`
	DB    db.Config        `yaml:"db"`
	Log   log.GlobalConfig `yaml:"log"`
	// SubLogs are named sub logger configurations
	SubLogs map[string]log.GlobalConfig `yaml:"subLogs"`
}

// Default is the default config
var Default = Config{
	Chain: Chain{
		MagicHex:       "414e4352", // "ANCR"
		GenesisHeight:  0,
		GenesisBlockID: "0000000000000000000000000000000000000000000000000000000000000000",
		Checkpoint:     checkpoint.Params{MaxRangeSpan: 1024},
		Bridge:         bridge.Params{MinDepositValue: 100000},
		Admin:          admin.Params{InitialOperatorSet: 1},
	},
	DB:      db.DefaultConfig,
	SubLogs: make(map[string]log.GlobalConfig),
}

// New creates a config by overriding the default with the yaml file at path. An empty
// path yields the default config.
func New(path string) (Config, error) {
	opts := []uconfig.YAMLOption{uconfig.Static(Default)}
	if path != "" {
		opts = append(opts, uconfig.File(path))
	}
	yaml, err := uconfig.NewYAML(opts...)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to init config")
	}
	var cfg Config
	if err := yaml.Get(uconfig.Root).Populate(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal yaml config")
	}
	return cfg, nil
}

// Magic parses the configured instance magic
func (c Chain) Magic() (l1.Magic, error) {
	b, err := hex.DecodeString(c.MagicHex)
	if err != nil || len(b) != l1.MagicSize {
		return l1.Magic{}, errors.Errorf("magic must be %d hex-encoded bytes: %q", l1.MagicSize, c.MagicHex)
	}
	return l1.Magic(b), nil
}

// GenesisView builds the chain view anchored at the configured genesis block
func (c Chain) GenesisView() (asm.ChainView, error) {
	id, err := chainhash.NewHashFromStr(c.GenesisBlockID)
	if err != nil {
		return asm.ChainView{}, errors.Wrap(err, "invalid genesis block id")
	}
	return asm.NewChainView(c.GenesisHeight, *id, new(big.Int)), nil
}
