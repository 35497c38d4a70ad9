// Package middleware provides TelemetryStore decorators. Encryption seals
// the recorded counts and histograms at rest with AES-GCM and supports key
// rotation through fallback keys.
package middleware
