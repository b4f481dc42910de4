// Package mock provides an in-memory Posts API used by local development
// setups and tests. It assigns ids as max(id)+1, rejects posts without a
// title or content, and can mirror its contents to a JSON file.
package mock
