package types

// HTTP Header Constants
const (
	HeaderUID           = "uid"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderRequestID     = "X-Request-ID"
)

// Authentication Constants
const (
	BearerPrefix     = "Bearer "
	AccessTokenName  = "access_token"
	UserCtxName      = "user"
	DefaultUserGroup = "user"
)

// Permission codes carried in the token claim.
const (
	PermDisableMailing = "can_disable_mailing"
	PermBlockUsers     = "can_block_service_users"
)
