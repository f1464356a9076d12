package session

import "time"

// Config holds session lifecycle configuration.
type Config struct {
	// Secret signs session tokens. Shared across instances.
	Secret string `env:"JWT_SECRET,required"`

	// CookieName is the session cookie name.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"inkfill-session-v0"`

	// Lifetime is how long a new session lives. Fixed at creation.
	Lifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"720h"`

	// LoginRedirect is where a successful login lands by default.
	LoginRedirect string `env:"SESSION_LOGIN_REDIRECT" envDefault:"/dashboard"`

	// LogoutRedirect is where logout always lands.
	LogoutRedirect string `env:"SESSION_LOGOUT_REDIRECT" envDefault:"/"`
}

// DefaultConfig returns default session configuration (30-day lifetime).
func DefaultConfig() Config {
	return Config{
		CookieName:     "inkfill-session-v0",
		Lifetime:       30 * 24 * time.Hour,
		LoginRedirect:  "/dashboard",
		LogoutRedirect: "/",
	}
}
