package errors

// template defines a registered error class.
type template struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]template{
	// Runtime errors (E001-E049)
	"E001": {
		Category:   CategoryRuntime,
		Message:    "hook order changed between renders",
		Suggestion: "Signals created inside a render body must be created unconditionally and in the same order on every render.",
	},
	"E002": {
		Category:   CategoryRuntime,
		Message:    "mount on a disposed scope",
		Suggestion: "The owning scope was closed before the mount completed. Dispose the handle instead of closing scopes directly.",
	},
	"E003": {
		Category:   CategoryRuntime,
		Message:    "portal target not found",
		Suggestion: "Check that the target node exists in the document before the portal mounts, or pass the node directly.",
	},
	"E004": {
		Category:   CategoryRuntime,
		Message:    "missing context dependency",
		Suggestion: "The requested context key is not bound by any enclosing Provide. Add a Provide for it above this component.",
	},
	"E005": {
		Category:   CategoryRuntime,
		Message:    "component render failed",
		Suggestion: "See the wrapped error. Add an error boundary to contain the failure to this subtree.",
	},

	// Configuration errors (E050-E099)
	"E050": {
		Category:   CategoryConfig,
		Message:    "duplicate key in keyed list",
		Suggestion: "Keys identify item state across updates and must be unique within one list.",
	},
	"E051": {
		Category:   CategoryConfig,
		Message:    "keyed list source is not a sequence",
		Suggestion: "ForEach requires a signal holding a slice value.",
	},
}

// New creates a coded error from the registry.
// Unknown codes still produce a usable error so a missing registry entry
// never masks the original failure.
func New(code string) *Error {
	if t, ok := registry[code]; ok {
		return &Error{
			Code:       code,
			Category:   t.Category,
			Message:    t.Message,
			Suggestion: t.Suggestion,
		}
	}
	return &Error{
		Code:     code,
		Category: CategoryRuntime,
		Message:  "unknown error",
	}
}

// Newf creates a coded error with formatted instance detail.
func Newf(code string, format string, args ...any) *Error {
	return New(code).WithDetailf(format, args...)
}
