package domain

// Capability is a coarse permission carried by the gateway token.
type Capability string

const (
	CapabilityUser    Capability = "USER"
	CapabilitySupport Capability = "SUPPORT"
	CapabilityAdmin   Capability = "ADMIN"
)

// Actor is the authenticated caller as asserted by the chat gateway.
type Actor struct {
	ID           string
	Tag          string
	Capabilities []Capability
}

// Has reports whether the actor carries the capability.
func (a Actor) Has(c Capability) bool {
	for _, got := range a.Capabilities {
		if got == c {
			return true
		}
	}
	return false
}

// HasAny reports whether the actor carries at least one of the capabilities.
func (a Actor) HasAny(caps ...Capability) bool {
	for _, c := range caps {
		if a.Has(c) {
			return true
		}
	}
	return false
}
