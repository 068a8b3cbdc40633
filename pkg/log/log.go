// Copyright (c) 2025 AnchorProject Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package log provides a global logger for the whole process and named sub loggers for
// individual components. Callers use log.L() or log.S() directly; components that want
// their own level/encoder use log.Logger(name) after InitLoggers has run.
package log

import (
	stdlog "log"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GlobalConfig defines the global logger configurations
type GlobalConfig struct {
	Zap            *zap.Config `json:"zap" yaml:"zap"`
	RedirectStdLog bool        `json:"stdLogRedirect" yaml:"stdLogRedirect"`
}

var (
	_globalCfg        GlobalConfig
	_logMu            sync.RWMutex
	_globalLogger     *zap.Logger
	_subLoggers       map[string]*zap.Logger
	_globalLoggerName = "global"
)

func init() {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zapCfg.Level.SetLevel(zap.InfoLevel)
	l, err := zapCfg.Build()
	if err != nil {
		stdlog.Println("Failed to init zap global logger, no zap log will be shown till zap is properly initialized: ", err)
		return
	}
	_logMu.Lock()
	_globalLogger = l
	_subLoggers = make(map[string]*zap.Logger)
	_logMu.Unlock()
}

// L wraps the global logger
func L() *zap.Logger {
	_logMu.RLock()
	l := _globalLogger
	_logMu.RUnlock()
	return l
}

// S wraps the sugared global logger
func S() *zap.SugaredLogger { return L().Sugar() }

// Logger returns the logger of the given name, or the global logger if the name is unknown
func Logger(name string) *zap.Logger {
	_logMu.RLock()
	defer _logMu.RUnlock()
	if l, ok := _subLoggers[name]; ok {
		return l
	}
	return _globalLogger
}

// InitLoggers initializes the global logger and the named sub loggers
func InitLoggers(globalCfg GlobalConfig, subCfgs map[string]GlobalConfig) error {
	if _, exists := subCfgs[_globalLoggerName]; exists {
		return errors.Errorf("'%s' is a reserved name for the global logger", _globalLoggerName)
	}
	subCfgs[_globalLoggerName] = globalCfg
	for name, cfg := range subCfgs {
		if cfg.Zap == nil {
			zapCfg := zap.NewProductionConfig()
			cfg.Zap = &zapCfg
		} else {
			cfg.Zap.EncoderConfig = zap.NewProductionEncoderConfig()
		}
		logger, err := cfg.Zap.Build()
		if err != nil {
			return err
		}
		_logMu.Lock()
		if name == _globalLoggerName {
			_globalCfg = cfg
			_globalLogger = logger
			if cfg.RedirectStdLog {
				zap.RedirectStdLog(_globalLogger)
			}
		} else {
			if _, exists := _subLoggers[name]; exists {
				_logMu.Unlock()
				return errors.Errorf("duplicate sub logger name: %s", name)
			}
			_subLoggers[name] = logger
		}
		_logMu.Unlock()
	}
	return nil
}
