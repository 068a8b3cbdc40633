// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package lifecycle provides life cycle utilities for long-lived components.
package lifecycle

import "context"

// Starter is a component that can be started
type Starter interface {
	Start(context.Context) error
}

// Stopper is a component that can be stopped
type Stopper interface {
	Stop(context.Context) error
}

// StartStopper is the interface of a component that can be started and stopped
type StartStopper interface {
	Starter
	Stopper
}

// Lifecycle manages a list of models' life cycle in registration order
type Lifecycle struct {
	models []interface{}
}

// Add adds a model to the lifecycle
func (lc *Lifecycle) Add(m interface{}) { lc.models = append(lc.models, m) }

// AddModels adds multiple models to the lifecycle
func (lc *Lifecycle) AddModels(m ...interface{}) { lc.models = append(lc.models, m...) }

// OnStart runs models' Start in registration order, stopping at the first error
func (lc *Lifecycle) OnStart(ctx context.Context) error {
	for _, m := range lc.models {
		if s, ok := m.(Starter); ok {
			if err := s.Start(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnStop runs models' Stop in reverse registration order, stopping at the first error
func (lc *Lifecycle) OnStop(ctx context.Context) error {
	for i := len(lc.models) - 1; i >= 0; i-- {
		if s, ok := lc.models[i].(Stopper); ok {
			if err := s.Stop(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
