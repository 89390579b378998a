// Package services implements the HTTP client for the Moodify backend.
//
// # Backend Interface
//
// [Backend] lists the operations the CLI and task layer depend on, so they can be
// exercised against fakes. [Client] is the production implementation.
//
// # Transport
//
// [APIService] performs raw JSON and multipart requests and returns an [APIResponse].
// Requests pass through an optional [rate.Limiter] before they are sent.
//
// Once a session is installed, [Client] wraps the HTTP client in an [oauth2.Transport]
// over a static token source, so every request carries "Authorization: Bearer <access>".
//
// # Endpoints
//
//   - POST /users/register/ and /users/login/ : session from tokens + user
//   - GET /users/user/profile/ : profile, bounded by the profile timeout
//   - PUT /users/user/profile/update/ : replace recent_moods or recent_recommendations
//   - POST /api/text_emotion/ : {"text": ...}
//   - POST /api/speech_emotion/ : multipart field "audio_file", bounded by the upload timeout
//   - POST /api/facial_emotion/ : multipart field "image"
//   - POST /api/music_recommendation/ : {"emotion": lowercase label}
//
// # Error Handling
//
//   - [shared.ErrAuthFailed] : register or login rejected
//   - [shared.ErrNotAuthenticated] : no session, or the server answered 401
//   - [shared.ErrUpload] : any failure of a file upload, carrying the server's error message
//   - [shared.ErrTimeout] : a bounded wait expired
//   - [shared.ErrAPIRequest] : any other failed request
package services
