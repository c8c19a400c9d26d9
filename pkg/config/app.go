package config

import (
	"strings"
	"time"
)

// GetAPIPrefix returns the path prefix all routes are mounted under, without
// a trailing slash. An empty prefix mounts routes at the root.
func GetAPIPrefix() string {
	prefix := strings.TrimSpace(GetEnv("API_PREFIX", ""))
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimSuffix(prefix, "/")
}

// GetHost returns the interface the server listens on
func GetHost() string {
	return GetEnv("HOST", "0.0.0.0")
}

// GetRootAPIKey returns the key required by write endpoints. Empty disables
// the check.
func GetRootAPIKey() string {
	return strings.TrimSpace(GetEnv("ROOT_API_KEY", ""))
}

// GetStorageDriver returns "mongo" or "memory"
func GetStorageDriver() string {
	return strings.ToLower(GetEnv("STORAGE_DRIVER", "mongo"))
}

// GetCacheTTL returns how long collection payloads stay in Redis
func GetCacheTTL() time.Duration {
	return GetDurationEnv("CACHE_TTL", 5*time.Minute)
}

// GetServerURL returns the public server URL advertised in the OpenAPI
// document, if overridden
func GetServerURL() string {
	return GetEnv("FLEET_DATA_API_URL_OVERRIDE", "")
}

// GetServerDescription returns the description of the advertised server
func GetServerDescription() string {
	return GetEnv("FLEET_DATA_API_SERVER_DESCRIPTION", "Fleet data API")
}

// GetEnvironment returns the deployment environment name
func GetEnvironment() string {
	return GetEnv("ENVIRONMENT", "development")
}

// IsProduction returns true if running in production environment
func IsProduction() bool {
	return GetEnvironment() == "production"
}
