// Package otel bridges engine metric snapshots into OpenTelemetry observable
// instruments via a registered callback.
package otel
