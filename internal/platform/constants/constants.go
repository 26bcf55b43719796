// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: Auth-gate cookie naming, token issuer and WebSocket close code.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "inkvault-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID     = "X-Request-ID"
	HeaderOrigin         = "Origin"
	HeaderXRealIP        = "X-Real-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderContentType    = "Content-Type"
	HeaderRetryAfter     = "Retry-After"
)

// # Authentication (app-wide password gate, §4.8)

const (
	// AuthCookieName is the signed, time-bounded cookie required on non-exempt paths.
	AuthCookieName = "auth_token"

	// AuthIssuer is the standard 'iss' claim of the auth-gate token.
	AuthIssuer = "inkvault"

	// WSUnauthorizedCloseCode is the WebSocket close code for an unauthenticated connection.
	WSUnauthorizedCloseCode = 4001
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaCatalog = "catalog"
	SchemaReader  = "reader"
)

// # Providers

const (
	ProviderFanqie = "fanqie"
	ProviderQimao  = "qimao"
	ProviderBiqu   = "biquge"

	// UnmeteredProvider is never subject to the daily word quota.
	UnmeteredProvider = ProviderBiqu

	// UnmeteredSentinelLimit is a large placeholder limit for the unmetered
	// provider. The quota ledger does not use it; it reports its own 1<<62
	// sentinel as the unmetered provider's limit.
	UnmeteredSentinelLimit = 1_000_000_000
)

// # Redis Key Prefixes

const (
	RedisPrefixSearchCache = "inkvault:search:"
)
