// Package handler exposes the dispatcher over HTTP: a POST /v1/completions
// endpoint that forwards prompts through the fallback chain, and a health
// endpoint reporting per-provider eligibility.
package handler
