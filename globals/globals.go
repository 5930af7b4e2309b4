package globals

// Context keys
type ContextKey string

const (
	UserIDKey    ContextKey = "userId"
	RoleKey      ContextKey = "role"
	IdentityKey  ContextKey = "identity"
	RequestIDKey ContextKey = "requestId"
)

// Roles
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session_token"
