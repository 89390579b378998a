package main

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodify/internal/audio"
	"github.com/desertthunder/moodify/internal/formatter"
	"github.com/desertthunder/moodify/internal/repositories"
	"github.com/desertthunder/moodify/internal/services"
	"github.com/desertthunder/moodify/internal/shared"
	"github.com/desertthunder/moodify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	input       *bufio.Reader
	client      *services.Client
	recorder    tasks.Recorder
	db          *sql.DB
	ownsDB      bool
	cache       *repositories.CacheRepository
	submissions *repositories.SubmissionRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Recorder   tasks.Recorder // built from the audio config when nil
	DB         *sql.DB        // opened from the database config on first use when nil
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		recorder:   opts.Recorder,
	}
	r.client = r.newClient()
	if opts.DB != nil {
		r.useDB(opts.DB)
	}
	return r
}

func (r *Runner) newClient() *services.Client {
	return services.NewClient(services.ClientOpts{
		BaseURL:           r.config.Backend.URL,
		HTTPClient:        r.httpClient,
		UploadTimeout:     r.config.Backend.UploadTimeout,
		ProfileTimeout:    r.config.Backend.ProfileTimeout,
		RequestsPerSecond: r.config.Backend.RequestsPerSecond,
		Burst:             r.config.Backend.Burst,
		Logger:            shared.WithLogger(r.logger, "component", "client"),
	})
}

// SetLogger replaces the logger, e.g. to move logs to a file while the TUI runs.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	session := r.client.Session()
	r.client = r.newClient()
	r.client.SetSession(session)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, profileCommand, moodCommand, recommendCommand, recordCommand,
		historyCommand, cacheCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) useDB(db *sql.DB) {
	r.db = db
	r.cache = repositories.NewCacheRepository(db)
	r.submissions = repositories.NewSubmissionRepository(db)
}

// openStore opens the database on first use, applies pending migrations and restores the saved session.
func (r *Runner) openStore() error {
	if r.db == nil {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		r.useDB(db)
		r.ownsDB = true
	}

	if r.client.Session() == nil {
		session, err := r.cache.Session()
		switch {
		case err == nil:
			r.client.SetSession(session)
		case !errors.Is(err, shared.ErrCacheMiss):
			r.logger.Warn("failed to read saved session", "error", err)
		}
	}
	return nil
}

// requireSession opens the store and fails unless a user is logged in.
func (r *Runner) requireSession() error {
	if err := r.openStore(); err != nil {
		return err
	}
	if !r.client.Session().Authenticated() {
		return fmt.Errorf("%w: run 'moodify auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

// Close releases the database if the runner opened it.
func (r *Runner) Close() error {
	if r.recorder != nil {
		if err := r.recorder.Close(); err != nil {
			r.logger.Warn("failed to release recorder", "error", err)
		}
	}
	if r.ownsDB && r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Runner) profileManager() *tasks.ProfileManager {
	return tasks.NewProfileManager(r.client, r.cache, shared.WithLogger(r.logger, "component", "profile"), nil)
}

// pipeline builds a [tasks.SpeechPipeline]; the microphone is only set up when record is true.
func (r *Runner) pipeline(record bool) (*tasks.SpeechPipeline, error) {
	var history tasks.SubmissionRecorder
	if r.submissions != nil {
		history = repositories.NewSubmissionLog(r.submissions)
	}

	var rec tasks.Recorder
	if record {
		var err error
		if rec, err = r.audioRecorder(); err != nil {
			return nil, err
		}
	}
	return tasks.NewSpeechPipeline(rec, r.client, history, shared.WithLogger(r.logger, "component", "pipeline")), nil
}

// audioRecorder builds the microphone recorder from the audio config on first use.
func (r *Runner) audioRecorder() (tasks.Recorder, error) {
	if r.recorder != nil {
		return r.recorder, nil
	}

	cfg := r.config.Audio
	mode, err := audio.ParseChannelMode(cfg.ChannelMode)
	if err != nil {
		return nil, err
	}

	logger := shared.WithLogger(r.logger, "component", "audio")
	r.recorder = audio.NewRecorder(audio.RecorderOpts{
		Source:  audio.NewMicrophone(1024, logger),
		Encoder: audio.NewFFmpegEncoder(cfg.FFmpegPath, logger),
		Decoder: audio.NewFFmpegDecoder(cfg.FFmpegPath, cfg.SampleRate, cfg.Channels),
		Constraints: audio.Constraints{
			SampleRate:       cfg.SampleRate,
			Channels:         cfg.Channels,
			BitDepth:         cfg.BitDepth,
			EchoCancellation: cfg.EchoCancellation,
			NoiseSuppression: cfg.NoiseSuppression,
			AutoGainControl:  cfg.AutoGainControl,
		},
		Encoding: audio.EncoderConfig{
			MIMEType:   cfg.MIMEType,
			Bitrate:    cfg.Bitrate,
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
		},
		Mode:   mode,
		Logger: logger,
	})
	return r.recorder, nil
}

// readLine reads one line from the runner's input, without the trailing newline.
func (r *Runner) readLine() (string, error) {
	line, err := r.input.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt asks for a value unless one was given.
func (r *Runner) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	r.writePlain("%s: ", label)
	line, err := r.readLine()
	if err != nil {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.ToLower(label))
	}
	return strings.TrimSpace(line), nil
}

// showProgress prints updates until the returned function is called.
func (r *Runner) showProgress() (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			switch update.Phase {
			case tasks.Recording:
				r.writePlain("🎙  %s\n", update.Message)
			case tasks.Uploading, tasks.Recommend:
				r.writePlain("📤 %s\n", update.Message)
			case tasks.Classified:
				r.writePlain("✓ %s\n", update.Message)
			default:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()
	return progress, func() {
		close(progress)
		wg.Wait()
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeFormatted renders data with render in the format chosen by --format and writes it
// to --output or the runner's output.
func (r *Runner) writeFormatted(cmd *cli.Command, render func(formatter.Format) ([]byte, error)) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	data, err := render(format)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(data, path); err != nil {
			return err
		}
		r.logger.Info("export written", "path", path, "format", format)
		return r.writePlain("✓ Saved %s\n", path)
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
