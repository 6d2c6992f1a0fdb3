package router

// HealthResult is the reply to a health-check request. Per spec.md §7,
// health checks always succeed unless the dispatcher itself panics, which
// is handled by the caller's recover, not by this type.
type HealthResult struct {
	OK bool
}

// HealthCheck answers a health-check request. It always reports healthy;
// deeper probing is delegated elsewhere (spec.md §6).
func (r *Router) HealthCheck() HealthResult {
	return HealthResult{OK: true}
}

// VersionInfo is the reply to a version-query request.
type VersionInfo struct {
	ApplicationName string
	Version         string
	OS              string
}

// VersionQuery answers a version-query request with the application name,
// version string, and host OS name.
func (r *Router) VersionQuery(appName, version, os string) VersionInfo {
	return VersionInfo{ApplicationName: appName, Version: version, OS: os}
}
