package ratelimit

import "github.com/danielgtaylor/huma/v2"

// MetadataKey is the key used to store rate limit config in operation metadata.
const MetadataKey = "rateLimit"

// EndpointConfig marks a Huma operation as rate limited.
// Operations without it are never limited.
type EndpointConfig struct {
	// Disabled keeps the metadata but skips limiting, e.g. for local profiles.
	Disabled bool
}

// GetEndpointConfig extracts the EndpointConfig from operation metadata, if present.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}

// Limited reports whether the operation behind ctx should be rate limited.
func Limited(ctx huma.Context) bool {
	cfg := GetEndpointConfig(ctx)

	return cfg != nil && !cfg.Disabled
}
