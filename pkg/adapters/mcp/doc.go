// Package mcp exposes a running vehicle to agents over the Model Context
// Protocol, as tools (status, mode, reposition, parameters, graph) and resources.
package mcp
