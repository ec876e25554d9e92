// Package hpkv provides a client for the HPKV REST API. It covers the five
// operations the service exposes over HTTP — Set (insert/upsert with optional
// server-side partial update), Get, Delete, atomic Increment and range Query —
// and maps error responses onto a typed Error carrying the HTTP status, a
// classification Kind and the decoded error body. Every call takes a
// context.Context, issues exactly one HTTP request and applies no retry,
// caching or pagination of its own.
package hpkv
