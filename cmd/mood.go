package main

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/desertthunder/moodify/internal/audio"
	"github.com/desertthunder/moodify/internal/formatter"
	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/shared"
	"github.com/desertthunder/moodify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// MoodText detects the emotion of the text given as arguments, or read from input.
func (r *Runner) MoodText(ctx context.Context, cmd *cli.Command) error {
	text, err := r.prompt("How are you feeling", strings.TrimSpace(strings.Join(cmd.Args().Slice(), " ")))
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("%w: text", shared.ErrMissingArgument)
	}

	if err := r.requireSession(); err != nil {
		return err
	}
	p, err := r.pipeline(false)
	if err != nil {
		return err
	}

	progress, done := r.showProgress()
	result, err := p.SubmitText(ctx, text, progress)
	done()
	if err != nil {
		return err
	}
	return r.writeResult(cmd, result)
}

// MoodFace uploads an image for facial emotion detection.
func (r *Runner) MoodFace(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("file")
	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return err
	}

	mediaType := cmd.String("type")
	if mediaType == "" {
		mediaType = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return fmt.Errorf("%w: %q is not an image", shared.ErrUnsupportedFormat, mediaType)
	}

	if err := r.requireSession(); err != nil {
		return err
	}
	p, err := r.pipeline(false)
	if err != nil {
		return err
	}

	progress, done := r.showProgress()
	result, err := p.SubmitImage(ctx, audio.NewFile(filepath.Base(path), mediaType, data), progress)
	done()
	if err != nil {
		return err
	}
	return r.writeResult(cmd, result)
}

// MoodSpeech records from the microphone, or takes --file, and detects the emotion of the speech.
func (r *Runner) MoodSpeech(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	path := cmd.String("file")
	p, err := r.pipeline(path == "")
	if err != nil {
		return err
	}

	var file *audio.File
	if path != "" {
		if file, err = readAudioFile(path, cmd.String("type")); err != nil {
			return err
		}
		r.logger.Info("uploading file", "name", file.Name(), "type", file.MIMEType(), "size", file.Size())
	} else {
		if file, err = r.recordClip(ctx, p); err != nil {
			return err
		}
		if save := cmd.String("save"); save != "" {
			if err := file.Save(save); err != nil {
				return err
			}
			r.logger.Info("recording saved", "path", save)
		}
	}

	progress, done := r.showProgress()
	result, err := p.Submit(ctx, file, progress)
	done()
	if err != nil {
		return err
	}
	return r.writeResult(cmd, result)
}

// Record captures a clip from the microphone and saves it as WAV.
func (r *Runner) Record(ctx context.Context, cmd *cli.Command) error {
	p, err := r.pipeline(true)
	if err != nil {
		return err
	}

	file, err := r.recordClip(ctx, p)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if err := file.Save(output); err != nil {
		return err
	}
	r.logger.Info("recording saved", "path", output, "bytes", file.Size())
	return r.writePlain("✓ Saved %s (%d bytes)\n", output, file.Size())
}

// Recommend asks for music matching a mood.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	mood := models.NormalizeEmotion(cmd.StringArg("mood"))
	if mood == "" {
		return fmt.Errorf("%w: mood", shared.ErrMissingArgument)
	}

	if err := r.requireSession(); err != nil {
		return err
	}

	progress, done := r.showProgress()
	result, err := r.profileManager().RecommendForMood(ctx, mood, progress)
	done()
	if err != nil {
		return err
	}

	if dir := cmd.String("export-dir"); dir != "" {
		export, err := formatter.WriteMarkdownExport(result, dir, r.output)
		if err != nil {
			return err
		}
		r.logger.Info("recommendations exported", "dir", export.Directory, "files", len(export.Files))
	}

	if err := r.writeResult(cmd, result); err != nil {
		return err
	}

	if cmd.Bool("open") {
		for _, rec := range result.Recommendations {
			if rec.ExternalURL != "" {
				r.logger.Info("opening", "track", rec.Title(), "url", rec.ExternalURL)
				return shared.OpenBrowser(rec.ExternalURL)
			}
		}
		r.logger.Warn("no recommendation has a link to open")
	}
	return nil
}

// readAudioFile loads a user-chosen audio file, checking its type against the upload allow-list.
func readAudioFile(path, declared string) (*audio.File, error) {
	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return nil, err
	}
	if declared == "" {
		declared = audio.MediaTypeFor(path)
	}
	return audio.AcceptFile(path, declared, data)
}

// recordClip records until enter is pressed or an interrupt arrives.
func (r *Runner) recordClip(ctx context.Context, p *tasks.SpeechPipeline) (*audio.File, error) {
	stop, release := r.stopSignal()
	defer release()

	progress, done := r.showProgress()
	file, err := p.Record(ctx, stop, progress)
	done()
	return file, err
}

// stopSignal returns a channel closed on the next line of input or on SIGINT.
//
// SIGINT stops the recording instead of killing the process so the clip is still encoded.
func (r *Runner) stopSignal() (<-chan struct{}, func()) {
	stop := make(chan struct{})
	var once sync.Once
	fire := func() { once.Do(func() { close(stop) }) }

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	go func() {
		if _, err := r.readLine(); err == nil {
			fire()
		}
	}()
	go func() {
		select {
		case <-sigs:
			fire()
		case <-stop:
		}
	}()

	return stop, func() {
		signal.Stop(sigs)
		fire()
	}
}

// writeResult prints a classification result as JSON (the raw response body) or formatted.
func (r *Runner) writeResult(cmd *cli.Command, result *models.ClassificationResult) error {
	if cmd.Bool("json") {
		if len(result.Raw) > 0 {
			return r.writeJSON(json.RawMessage(result.Raw), true)
		}
		return r.writeJSON(result, true)
	}
	return r.writeFormatted(cmd, func(f formatter.Format) ([]byte, error) {
		return formatter.FormatResult(result, f)
	})
}
