// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package asm

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	_blockTransitionMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asm_block_transition_total",
			Help: "Anchor state transitions by outcome",
		},
		[]string{"status"},
	)
	_auxRequestMtc = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "asm_aux_request_total",
			Help: "Auxiliary data requests collected during pre-processing",
		},
	)
)

func init() {
	prometheus.MustRegister(_blockTransitionMtc)
	prometheus.MustRegister(_auxRequestMtc)
}
