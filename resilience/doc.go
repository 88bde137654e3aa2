// Package resilience wraps calls to external services with retry and
// per-operation circuit breaking.
//
// Executor is used around embedding-service calls so a failing service is
// skipped quickly instead of stalling every enrichment. RetryWithBackoff is
// the plain retry loop used for storage writes during re-embedding.
package resilience
