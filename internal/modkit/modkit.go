package modkit

import "metaview/internal/modkit/module"

// Module is the common surface for console modules that mount routes and expose ports
type Module = module.Module

// Builder constructs a Module from shared deps and options
// modules typically expose New(deps Deps, opts ...Option) Module
type Builder func(Deps, ...Option) Module
