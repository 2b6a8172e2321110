package module

import "metaview/internal/services/domains/domain"

// Ports holds the ports exposed by the verifications module
type Ports struct {
	Wizards domain.ServicePort
}

// OpenSessions counts live verification sessions for the meta module
func (p Ports) OpenSessions() int { return p.Wizards.Sessions() }

// CloseAll closes every verification session on shutdown
func (p Ports) CloseAll() { p.Wizards.CloseAll() }

// Inject overrides dependencies, mainly for tests
type Inject struct {
	API domain.API
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
