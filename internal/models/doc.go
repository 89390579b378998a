// Package models defines domain entities and persistence interfaces for the moodify client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs mirroring the Moodify backend's JSON contracts
//   - [Session] : Authenticated user with access and refresh tokens
//   - [Profile] : User profile with recent moods and recommendations
//   - [MoodEntry] : A single detected emotion with its timestamp
//   - [Recommendation] : A recommended track
//   - [ClassificationResult] : Emotion label plus recommendations returned by a detection endpoint
//
// 2. Persistent Entities: database-backed models with full lifecycle management
//   - [Submission] : Local log of a file or text sent for classification
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
