// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package db

// Config is the config for the database
type Config struct {
	DbPath string `yaml:"dbPath"`
	// NumRetries is the number of retries for a failed write
	NumRetries uint8 `yaml:"numRetries"`
}

// DefaultConfig returns the default config
var DefaultConfig = Config{
	DbPath:     "anchor.db",
	NumRetries: 3,
}
