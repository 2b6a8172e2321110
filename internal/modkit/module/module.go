// Package module defines the minimal contract for a console module
package module

import (
	phttp "metaview/internal/platform/net/http"
)

// Module is what the console composes: routes under a prefix plus a port bundle
// kept apart from modkit so a module's own ports type can import it without a cycle
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
