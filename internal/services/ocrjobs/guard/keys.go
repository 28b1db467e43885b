// Package guard holds the shared state that protects OCR capacity: the result cache,
// the per minute rate limiter and the in-flight admission counter. All of it lives in
// store.KV so every bot, API and worker process sees the same numbers.
package guard

import "strconv"

// Keys builds namespaced KV keys
type Keys struct {
	Prefix string
}

// Cache is the result cache key for a fingerprint
func (k Keys) Cache(fingerprint string) string { return k.Prefix + "cache:" + fingerprint }

// Rate is the request counter key for one minute bucket
func (k Keys) Rate(requesterID string, bucket int64) string {
	return k.Prefix + "rate:" + requesterID + ":" + strconv.FormatInt(bucket, 10)
}

// Running is the in-flight counter key
func (k Keys) Running(requesterID string) string { return k.Prefix + "running:" + requesterID }

// Prefs is the stored preferences key
func (k Keys) Prefs(requesterID string) string { return k.Prefix + "prefs:" + requesterID }
