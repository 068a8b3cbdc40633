// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anchorproject/anchor-core/l1"
)

func TestDefaultConfig(t *testing.T) {
	require := require.New(t)

	cfg, err := New("")
	require.NoError(err)
	require.Equal(Default.Chain.MagicHex, cfg.Chain.MagicHex)
	require.Equal(uint64(1024), cfg.Chain.Checkpoint.MaxRangeSpan)
	require.Equal(uint64(100000), cfg.Chain.Bridge.MinDepositValue)
	require.Equal(uint32(1), cfg.Chain.Admin.InitialOperatorSet)
	require.Equal(Default.DB.DbPath, cfg.DB.DbPath)

	magic, err := cfg.Chain.Magic()
	require.NoError(err)
	require.Equal(l1.Magic{'A', 'N', 'C', 'R'}, magic)
}

func TestFileOverridesDefault(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(os.WriteFile(path, []byte(`
chain:
  magicHex: "54455354"
  genesisHeight: 840000
  bridge:
    minDepositValue: 250000
db:
  dbPath: "/var/data/anchor.db"
`), 0600))

	cfg, err := New(path)
	require.NoError(err)
	require.Equal(uint64(840000), cfg.Chain.GenesisHeight)
	require.Equal(uint64(250000), cfg.Chain.Bridge.MinDepositValue)
	require.Equal("/var/data/anchor.db", cfg.DB.DbPath)
	// untouched fields keep their defaults
	require.Equal(uint64(1024), cfg.Chain.Checkpoint.MaxRangeSpan)

	magic, err := cfg.Chain.Magic()
	require.NoError(err)
	require.Equal(l1.Magic{'T', 'E', 'S', 'T'}, magic)
}

func TestMagicValidation(t *testing.T) {
	require := require.New(t)

	for _, bad := range []string{"", "41", "zzzzzzzz", "414e435200"} {
		c := Chain{MagicHex: bad}
		_, err := c.Magic()
		require.Error(err)
	}
}

func TestGenesisView(t *testing.T) {
	require := require.New(t)

	view, err := Default.Chain.GenesisView()
	require.NoError(err)
	require.Zero(view.Height)

	c := Default.Chain
	c.GenesisHeight = 840000
	c.GenesisBlockID = "0000000000000000000320283a032748cef8227873ff4872689bf23f1cda83a5"
	view, err = c.GenesisView()
	require.NoError(err)
	require.Equal(uint64(840000), view.Height)
	require.Equal(c.GenesisBlockID, view.BlockID.String())

	c.GenesisBlockID = "nonsense"
	_, err = c.GenesisView()
	require.Error(err)
}
