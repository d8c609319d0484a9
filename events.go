package clientip

const (
	resultPublic     = "public"
	resultDeferred   = "deferred"
	resultFallback   = "fallback"
	resultUnresolved = "unresolved"
)

const (
	skipReasonExcluded = "excluded"
	skipReasonInvalid  = "invalid"
	skipReasonReserved = "reserved"
)
