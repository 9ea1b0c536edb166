package handlers

// Client-facing messages. Frontends match on these strings, keep them stable.
const (
	MsgLoginMissing      = "Email/Phone and Password are required"
	MsgIdentifierTooLong = "Identifier too long"
	MsgPasswordTooLong   = "Password too long"
	MsgUserNotFound      = "User not found"
	MsgTooManyAttempts   = "Too many failed attempts"
	MsgInvalidPassword   = "Invalid password"
	MsgLoginSuccessful   = "Login successful"
	MsgRegisterMissing   = "Email or phone and password are required."
	MsgUserExists        = "User already exists."
	MsgRegistered        = "Registration successful."
	MsgInvalidJSON       = "Invalid JSON payload."
	MsgInternal          = "Internal server error."
	MsgMissingOAuthEmail = "Could not retrieve email from Google"
	MsgOAuthFailed       = "OAuth authentication failed"
	MsgUnknownProvider   = "Unknown OAuth provider"
	MsgNotLoggedIn       = "Not logged in"
	MsgSeedMissing       = "Missing email or password."
	MsgSeeded            = "Test user seeded."
	MsgAttemptsReset     = "Attempts reset."
)
