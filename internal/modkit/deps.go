// Package modkit provides module wiring and core deps
package modkit

import (
	"metaview/internal/adapters/metaview"
	"metaview/internal/platform/config"
	"metaview/internal/platform/logger"
	ptime "metaview/internal/platform/time"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log   *logger.Logger
	Cfg   config.Conf
	API   metaview.API
	Clock ptime.Clock
}

// Logger returns a component child of Log, falling back to the root logger when Log is nil
func (d Deps) Logger(component string) *logger.Logger {
	if d.Log == nil {
		return logger.Named(component)
	}
	l := d.Log.With().Str("component", component).Logger()
	return &l
}
