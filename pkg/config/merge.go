package config

// Merge applies the non-zero values of src to dst and records sourceType
// for each of them. Booleans only merge when true.
func Merge(dst, src *Config, sourceType string) {
	if src == nil {
		return
	}
	if dst.Sources == nil {
		dst.Sources = make(map[string]string)
	}
	set := func(key string) { dst.Sources[key] = sourceType }

	if src.Host != "" {
		dst.Host = src.Host
		set("host")
	}
	if src.Port != 0 {
		dst.Port = src.Port
		set("port")
	}
	if len(src.Targets) > 0 {
		dst.Targets = append([]string(nil), src.Targets...)
		set("targets")
	}
	if src.AdminURL != "" {
		dst.AdminURL = src.AdminURL
		set("adminUrl")
	}
	if src.Token != "" {
		dst.Token = src.Token
		set("token")
	}

	if src.Storage.Type != "" {
		dst.Storage.Type = src.Storage.Type
		set("storage.type")
	}
	if src.Storage.Path != "" {
		dst.Storage.Path = src.Storage.Path
		set("storage.path")
	}
	if src.Storage.Cache.Enabled {
		dst.Storage.Cache.Enabled = true
		set("storage.cache.enabled")
	}
	if src.Storage.Cache.Expiration != 0 {
		dst.Storage.Cache.Expiration = src.Storage.Cache.Expiration
		set("storage.cache.expiration")
	}
	if src.Storage.Cache.Cleanup != 0 {
		dst.Storage.Cache.Cleanup = src.Storage.Cache.Cleanup
		set("storage.cache.cleanup")
	}

	if src.Auth.TokenSecret != "" {
		dst.Auth.TokenSecret = src.Auth.TokenSecret
		set("auth.tokenSecret")
	}
	if src.Auth.UserField != "" {
		dst.Auth.UserField = src.Auth.UserField
		set("auth.userField")
	}
	if src.Session.TTL != 0 {
		dst.Session.TTL = src.Session.TTL
		set("session.ttl")
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
		set("log.level")
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
		set("log.format")
	}
}
