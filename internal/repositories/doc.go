// Package repositories implements SQLite persistence for the client.
//
// Key Implementations:
//   - [CacheRepository] : key-value cache with last-write-wins semantics, holding the session under
//     [KeySession] and the profile snapshot under [KeyProfile]
//   - [SubmissionRepository] : local log of classification requests with soft deletes
//   - [SubmissionLog] : adapter recording pipeline submissions through [SubmissionRepository]
//
// Values in the cache are stored as JSON text. A missing key reports [shared.ErrCacheMiss].
//
// Submission sequence numbers come from [NextSequence], which atomically increments a counter
// in the submissions_sequence table.
package repositories
