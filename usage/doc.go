// Package usage implements request attribution and cost accounting for
// adapters. A resolution carrying a principal yields a Tracked decorator that
// records one usage Record per final model response, priced from the
// per-model pricing table. Stores persist the ledger; InMemoryStore covers
// tests and defaults, usage/sqlite adds a durable backend.
package usage
