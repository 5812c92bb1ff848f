package erc8004

// ReputationExtension is the parsed form of a PaymentRequirements.extra
// entry under the "8004-reputation" key.
type ReputationExtension struct {
	IncludeProof bool
}

// ParseReputationExtension reads the "8004-reputation" key out of a
// PaymentRequirements.extra map, if present. ok is false when the key is
// absent or malformed, in which case callers should treat the extension as
// not requested rather than erroring.
func ParseReputationExtension(extra map[string]any) (ReputationExtension, bool) {
	raw, ok := extra["8004-reputation"]
	if !ok {
		return ReputationExtension{}, false
	}
	settings, ok := raw.(map[string]interface{})
	if !ok {
		return ReputationExtension{}, false
	}
	includeProof, _ := settings["includeProof"].(bool)
	return ReputationExtension{IncludeProof: includeProof}, true
}
