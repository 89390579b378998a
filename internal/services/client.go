package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodify/internal/audio"
	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	registerPath       = "/users/register/"
	loginPath          = "/users/login/"
	profilePath        = "/users/user/profile/"
	profileUpdatePath  = "/users/user/profile/update/"
	textEmotionPath    = "/api/text_emotion/"
	speechEmotionPath  = "/api/speech_emotion/"
	facialEmotionPath  = "/api/facial_emotion/"
	recommendationPath = "/api/music_recommendation/"

	speechField = "audio_file"
	imageField  = "image"

	defaultTimeout = 60 * time.Second
)

// ClientOpts configures a [Client].
type ClientOpts struct {
	BaseURL           string
	HTTPClient        *http.Client
	Session           *models.Session
	UploadTimeout     time.Duration
	ProfileTimeout    time.Duration
	RequestsPerSecond float64
	Burst             int
	Logger            *log.Logger
}

// Client talks to the Moodify backend. It implements [Backend].
//
// Requests made with a session carry its access token through an [oauth2.Transport].
type Client struct {
	baseURL        string
	base           *http.Client
	limiter        *rate.Limiter
	uploadTimeout  time.Duration
	profileTimeout time.Duration
	logger         *log.Logger

	anon    *APIService
	authed  *APIService
	session *models.Session
}

var _ Backend = (*Client)(nil)

// NewClient creates a [Client] from opts.
func NewClient(opts ClientOpts) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = defaultTimeout
	}
	if opts.ProfileTimeout <= 0 {
		opts.ProfileTimeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(opts.Burst, 1))
	}

	c := &Client{
		baseURL:        opts.BaseURL,
		base:           opts.HTTPClient,
		limiter:        limiter,
		uploadTimeout:  opts.UploadTimeout,
		profileTimeout: opts.ProfileTimeout,
		logger:         opts.Logger,
	}
	c.anon = NewAPIService(opts.BaseURL, opts.HTTPClient, limiter)
	c.SetSession(opts.Session)
	return c
}

// SetSession replaces the session whose token authorizes requests. Nil clears it.
func (c *Client) SetSession(s *models.Session) {
	c.session = s
	if !s.Authenticated() {
		c.authed = c.anon
		return
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.Access, RefreshToken: s.Refresh, TokenType: "Bearer"})
	hc := &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: c.base.Transport},
		Timeout:   c.base.Timeout,
	}
	c.authed = NewAPIService(c.baseURL, hc, c.limiter)
}

// Session returns the current session or nil.
func (c *Client) Session() *models.Session {
	return c.session
}

// API returns the raw transport, authorized when a session is set.
func (c *Client) API() *APIService {
	return c.authed
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type authResponse struct {
	Tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
	User struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (r authResponse) session(username, email string) *models.Session {
	s := &models.Session{
		Username: r.User.Username,
		Email:    r.User.Email,
		Access:   r.Tokens.Access,
		Refresh:  r.Tokens.Refresh,
	}
	if s.Access == "" {
		s.Access, s.Refresh = r.Access, r.Refresh
	}
	if s.Username == "" {
		s.Username = username
	}
	if s.Email == "" {
		s.Email = email
	}
	return s
}

// Register creates an account. The returned session is also installed on the client.
func (c *Client) Register(ctx context.Context, username, password, email string) (*models.Session, error) {
	return c.authenticate(ctx, registerPath, authRequest{Username: username, Password: password, Email: email})
}

// Login exchanges credentials for a session. The returned session is also installed on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*models.Session, error) {
	return c.authenticate(ctx, loginPath, authRequest{Username: username, Password: password})
}

func (c *Client) authenticate(ctx context.Context, path string, body authRequest) (*models.Session, error) {
	if body.Username == "" || body.Password == "" {
		return nil, fmt.Errorf("%w: username and password", shared.ErrMissingArgument)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.anon.Post(ctx, path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, resp.ErrorMessage())
	}

	var out authResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", shared.ErrAuthFailed, err)
	}

	session := out.session(body.Username, body.Email)
	if session.Access == "" {
		c.logger.Debug("auth response without token", "path", path, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: response did not include an access token", shared.ErrAuthFailed)
	}

	c.SetSession(session)
	c.logger.Info("authenticated", "username", session.Username)
	return session, nil
}

// Profile fetches the user profile, bounded by the profile timeout.
//
// A 401 yields [shared.ErrNotAuthenticated]; lists missing from the response are normalized to empty.
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	if !c.session.Authenticated() {
		return nil, shared.ErrNotAuthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, c.profileTimeout)
	defer cancel()

	resp, err := c.authed.Get(ctx, profilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	p, err := decodeProfile(resp)
	if err != nil {
		return nil, err
	}
	normalized := p.Normalize()
	return &normalized, nil
}

// UpdateProfile sends update and returns the profile the server stored.
//
// Lists absent from the response are left nil so callers can tell them apart from empty ones.
func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.Profile, error) {
	if !c.session.Authenticated() {
		return nil, shared.ErrNotAuthenticated
	}

	data, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile update: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.profileTimeout)
	defer cancel()

	resp, err := c.authed.Put(ctx, profileUpdatePath, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return decodeProfile(resp)
}

func decodeProfile(resp *APIResponse) (*models.Profile, error) {
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, resp.ErrorMessage())
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, resp.ErrorMessage())
	}

	var p models.Profile
	if err := json.Unmarshal(resp.Body, &p); err != nil {
		return nil, fmt.Errorf("%w: invalid profile: %v", shared.ErrAPIRequest, err)
	}
	return &p, nil
}

// DetectTextEmotion classifies text.
func (c *Client) DetectTextEmotion(ctx context.Context, text string) (*models.ClassificationResult, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text", shared.ErrMissingArgument)
	}

	data, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.authed.Post(ctx, textEmotionPath, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return decodeResult(resp, shared.ErrAPIRequest)
}

// DetectSpeechEmotion uploads an audio file under the "audio_file" field.
//
// Any failure is reported as [shared.ErrUpload]; there is no retry.
func (c *Client) DetectSpeechEmotion(ctx context.Context, file *audio.File) (*models.ClassificationResult, error) {
	return c.upload(ctx, speechEmotionPath, speechField, file)
}

// DetectFacialEmotion uploads an image under the "image" field.
func (c *Client) DetectFacialEmotion(ctx context.Context, file *audio.File) (*models.ClassificationResult, error) {
	return c.upload(ctx, facialEmotionPath, imageField, file)
}

func (c *Client) upload(ctx context.Context, path, field string, file *audio.File) (*models.ClassificationResult, error) {
	if file == nil || file.Size() == 0 {
		return nil, fmt.Errorf("%w: nothing to upload", shared.ErrUpload)
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	c.logger.Debug("uploading", "path", path, "file", file.Name(), "type", file.MIMEType(), "bytes", file.Size())

	resp, err := c.authed.Upload(ctx, path, field, file.Name(), file.MIMEType(), file.Reader())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrUpload, err)
	}
	return decodeResult(resp, shared.ErrUpload)
}

// Recommend asks for tracks matching emotion, which is sent lowercased.
func (c *Client) Recommend(ctx context.Context, emotion string) (*models.ClassificationResult, error) {
	emotion = models.NormalizeEmotion(emotion)
	if emotion == "" {
		return nil, fmt.Errorf("%w: emotion", shared.ErrMissingArgument)
	}

	data, err := json.Marshal(map[string]string{"emotion": emotion})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.authed.Post(ctx, recommendationPath, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	result, err := decodeResult(resp, shared.ErrAPIRequest)
	if err != nil {
		return nil, err
	}
	if result.Emotion == "" {
		result.Emotion = emotion
	}
	return result, nil
}

// decodeResult maps a classification response, wrapping failures in kind.
func decodeResult(resp *APIResponse, kind error) (*models.ClassificationResult, error) {
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: %w: %s", kind, shared.ErrNotAuthenticated, resp.ErrorMessage())
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d: %s", kind, resp.StatusCode, resp.ErrorMessage())
	}

	var result models.ClassificationResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", kind, err)
	}
	if result.Recommendations == nil {
		result.Recommendations = []models.Recommendation{}
	}
	result.Raw = json.RawMessage(resp.Body)
	return &result, nil
}

// IsUnauthorized reports whether err came from a 401 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, shared.ErrNotAuthenticated)
}
