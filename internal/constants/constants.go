package constants

const (
	// ContextKeyIdentity is the gin context key holding the verified *auth.Identity
	ContextKeyIdentity = "identity"
	// ContextKeyTask is the gin context key holding the task loaded by RequireTaskAccess
	ContextKeyTask = "task"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MaxTitleLength matches the tasks.title column size
const MaxTitleLength = 255
