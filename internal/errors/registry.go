package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Protocol Errors (E001-E099)
	// ============================================

	"E001": {
		Category: CategoryProtocol,
		Message:  "Hook order changed between renders",
		Detail:   "The Nth hook read during one render must be the Nth hook of the same kind on every later render. Hooks may not be called conditionally.",
	},
	"E002": {
		Category: CategoryProtocol,
		Message:  "Hook store is frozen",
		Detail:   "A finalizer hook was appended during an earlier render. No further hooks may be added to this coroutine.",
	},
	"E003": {
		Category: CategoryProtocol,
		Message:  "Update requested on a detached coroutine",
		Detail:   "The coroutine was finalized. RequestUpdate returns a no-op handle that resolves canceled.",
	},
	"E004": {
		Category: CategoryProtocol,
		Message:  "Binding already initialized",
		Detail:   "Hydrate may only be called on a binding that has never connected or committed. Hydration and fresh connection are mutually exclusive.",
	},
	"E005": {
		Category: CategoryProtocol,
		Message:  "Directive kind changed across renders",
		Detail:   "A part's binding variant is resolved once. Rebind values of the same kind, or disconnect and reconnect the part.",
	},

	// ============================================
	// Binding Errors (E101-E199)
	// ============================================

	"E101": {
		Category: CategoryBinding,
		Message:  "Value incompatible with its part",
		Detail:   "The value's type cannot be bound to the part it targets (e.g., a non-list given to a list part, a non-function given to an event part).",
	},
	"E102": {
		Category: CategoryBinding,
		Message:  "Binding is not connected",
		Detail:   "Commit was requested for a binding that has no staged state. Call Connect before Commit.",
	},

	// ============================================
	// Hydration Errors (E201-E299)
	// ============================================

	"E201": {
		Category: CategoryHydration,
		Message:  "Hydration tree mismatch",
		Detail:   "The next node in document order does not match the expected node type or name. The hydration attempt for this subtree fails; sibling subtrees are unaffected.",
	},
	"E202": {
		Category: CategoryHydration,
		Message:  "Hydration tree exhausted",
		Detail:   "The walker ran out of nodes before the template's parts were all located.",
	},

	// ============================================
	// Scheduler Errors (E301-E399)
	// ============================================

	"E301": {
		Category: CategoryScheduler,
		Message:  "Flush re-entered",
		Detail:   "The commit queues are drained by a single scheduler loop. A flush was requested while one was already running on this engine.",
	},
	"E302": {
		Category: CategoryScheduler,
		Message:  "Unhandled render error",
		Detail:   "A render pass failed and no error boundary was registered on the coroutine chain. The update cycle was aborted without committing.",
	},

	// ============================================
	// Config / CLI Errors (E401-E499)
	// ============================================

	"E401": {
		Category: CategoryConfig,
		Message:  "Invalid engine configuration",
	},
	"E402": {
		Category: CategoryCLI,
		Message:  "Unknown benchmark name",
	},
}

// Lookup returns the template registered for code, if any.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
