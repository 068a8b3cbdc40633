// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package asm

import (
	"github.com/pkg/errors"
)

// Registry is the hub of all subprotocols deployed on the chain. Registration order is
// consensus-critical: the engine runs every per-block phase in exactly this order, and
// the manifest concatenates logs in this order. The registry is append-only; handlers
// cannot be replaced or removed.
type Registry struct {
	handlers []Handler
	byID     map[SubprotocolID]int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byID: make(map[SubprotocolID]int)}
}

// Register appends a handler. A handler with a duplicate id is rejected.
func (r *Registry) Register(h Handler) error {
	if _, ok := r.byID[h.ID()]; ok {
		return errors.Errorf("subprotocol with id %d is already registered", h.ID())
	}
	r.byID[h.ID()] = len(r.handlers)
	r.handlers = append(r.handlers, h)
	return nil
}

// MustRegister appends a handler and panics on a duplicate id. Registration happens
// once at chain configuration time, so a duplicate is a build defect.
func (r *Registry) MustRegister(h Handler) {
	if err := r.Register(h); err != nil {
		panic(err)
	}
}

// Find finds a handler by id
func (r *Registry) Find(id SubprotocolID) (Handler, bool) {
	i, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return r.handlers[i], true
}

// Handlers returns all handlers in registration order
func (r *Registry) Handlers() []Handler { return r.handlers }

// Size returns the number of registered handlers
func (r *Registry) Size() int { return len(r.handlers) }
