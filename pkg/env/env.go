package env

import "os"

// Get reads an environment variable, falling back when it is unset or
// empty. Config proper goes through envconfig; this exists for the few
// knobs (log format, PORT) read before config is parsed.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
