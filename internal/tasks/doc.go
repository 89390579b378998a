// Package tasks orchestrates multi-step client operations with progress reporting.
//
// # Speculative Updates
//
// [Speculative] holds an immutable value with optimistic apply, commit and rollback:
//
//  1. snapshot the current value
//  2. compute the next value with a transition that must not mutate its input
//  3. publish the next value
//  4. commit it; on success publish the committed value, on failure publish the snapshot again
//
// # Profile
//
// [ProfileManager] loads the profile (falling back to the cache when the backend is
// unreachable) and deletes moods and recommendations through [Speculative]. The cache is
// written after every commit and after every rollback. Out-of-range indices are rejected
// before any request is made.
//
// # Speech Pipeline
//
// [SpeechPipeline] runs capture and transcoding through a [Recorder], submits files and text
// through [services.Backend], and logs every successful classification to a [SubmissionRecorder].
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Sends never block; updates are
// dropped when the channel is full.
package tasks
