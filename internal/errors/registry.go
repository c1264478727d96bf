package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

const remount = "Remount the render target from scratch."

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Contract Violations (DS100-DS199)
	// ============================================

	"DS101": {
		Category:   CategoryContract,
		Message:    "No node registered for patch target",
		Detail:     "The patch addresses an id that was never materialized or has already been purged.",
		Suggestion: remount,
	},
	"DS102": {
		Category:   CategoryContract,
		Message:    "Node has no parent",
		Detail:     "The node must be attached to a parent to be replaced or removed.",
		Suggestion: remount,
	},
	"DS103": {
		Category:   CategoryContract,
		Message:    "Order index out of range",
		Detail:     "An order removal references a child position outside the snapshot of current children.",
		Suggestion: remount,
	},
	"DS104": {
		Category:   CategoryContract,
		Message:    "Materialized tree does not match view",
		Detail:     "The bulk parse produced a different number of children than the view declares, so ids cannot be assigned in lockstep.",
		Suggestion: "Check that element kinds are valid inside a generic container.",
	},
	"DS105": {
		Category: CategoryContract,
		Message:  "Patch has no payload",
	},
	"DS106": {
		Category:   CategoryContract,
		Message:    "Render target is stale",
		Detail:     "A previous transaction failed. The target rejects further transactions until it is reset.",
		Suggestion: remount,
	},

	// ============================================
	// Native Failures (DS200-DS299)
	// ============================================

	"DS201": {
		Category: CategoryNative,
		Message:  "Bulk parse produced no node",
	},
	"DS202": {
		Category: CategoryNative,
		Message:  "Host rejected attribute",
	},
	"DS203": {
		Category: CategoryNative,
		Message:  "Host rejected tree mutation",
	},
	"DS204": {
		Category: CategoryNative,
		Message:  "Host could not create element",
	},

	// ============================================
	// Protocol Errors (DS300-DS399)
	// ============================================

	"DS301": {
		Category: CategoryProtocol,
		Message:  "Invalid transaction",
		Detail:   "The transaction JSON could not be decoded.",
	},
	"DS302": {
		Category: CategoryProtocol,
		Message:  "Invalid view",
		Detail:   `A view is either {"Text": string} or {"Data": {...}}.`,
	},
	"DS303": {
		Category: CategoryProtocol,
		Message:  "Unknown patch kind",
		Detail:   "Patch tags are Mount, Insert, Replace, Order and Props.",
	},

	// ============================================
	// Config Errors (DS400-DS499)
	// ============================================

	"DS401": {
		Category: CategoryConfig,
		Message:  "Failed to read configuration",
	},
	"DS402": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	"DS403": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create domsync.json or pass --config.",
	},

	// ============================================
	// CLI Errors (DS500-DS599)
	// ============================================

	"DS501": {
		Category: CategoryCLI,
		Message:  "No transactions given",
	},
	"DS502": {
		Category: CategoryCLI,
		Message:  "Snapshot upload failed",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
