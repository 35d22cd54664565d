package postgres

// Config holds the parameters sent in a StartupMessage plus the
// credentials used during authentication.
type Config struct {
	User     string
	Password string
	Database string
	// Options are extra StartupMessage key/value pairs beyond user and
	// database (e.g. "application_name").
	Options map[string]string
	// StatementCacheCapacity is not read by Connect or ConnectEncrypted;
	// the prepared-statement cache is bounded by the capacity passed to
	// NewExecutorBuffer.
	StatementCacheCapacity int
}

// startupParams flattens Options plus user/database into the map
// StartupMessage encodes.
func (c *Config) startupParams() map[string]string {
	params := make(map[string]string, len(c.Options)+2)
	for k, v := range c.Options {
		params[k] = v
	}
	params["user"] = c.User
	if c.Database != "" {
		params["database"] = c.Database
	}
	return params
}
