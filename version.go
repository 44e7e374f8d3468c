package homeward

import _ "embed"

// Version is the release of the homeward module.
//
//go:embed VERSION
var Version string
