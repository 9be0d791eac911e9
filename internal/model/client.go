package model

import "strings"

// ClientFamily is the closed set of client runtimes that get dedicated
// prompt instructions and configuration shapes.
type ClientFamily string

const (
	FamilyClaude  ClientFamily = "claude"
	FamilyCursor  ClientFamily = "cursor"
	FamilyGeneric ClientFamily = "generic"
)

// familyOrder is the match order; the first family whose marker appears in
// the client name wins.
var familyOrder = []ClientFamily{FamilyClaude, FamilyCursor}

// ResolveClientFamily matches a client name case-insensitively.
func ResolveClientFamily(clientName string) ClientFamily {
	name := strings.ToLower(clientName)
	for _, f := range familyOrder {
		if strings.Contains(name, string(f)) {
			return f
		}
	}
	return FamilyGeneric
}

// ClientConfig tells one client runtime how to launch the generated server.
type ClientConfig struct {
	ClientName    string         `json:"client_name"`
	Family        ClientFamily   `json:"family"`
	Path          string         `json:"path"`
	Configuration map[string]any `json:"configuration"`
}
