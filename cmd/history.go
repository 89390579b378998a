package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moodify/internal/formatter"
	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/shared"
	"github.com/urfave/cli/v3"
)

type submissionJSON struct {
	ID        string `json:"id"`
	Sequence  int    `json:"sequence"`
	Kind      string `json:"kind"`
	Filename  string `json:"filename,omitempty"`
	MIMEType  string `json:"mime_type"`
	Size      int64  `json:"size"`
	Emotion   string `json:"emotion"`
	CreatedAt string `json:"created_at"`
}

// History lists submissions recorded on this machine, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	kind := models.SubmissionKind(cmd.String("kind"))
	if kind != "" && !kind.Valid() {
		return fmt.Errorf("%w: kind must be speech, facial or text, got %q", shared.ErrInvalidArgument, kind)
	}

	if err := r.openStore(); err != nil {
		return err
	}

	subs, err := r.submissions.List(map[string]any{"kind": string(kind), "limit": int(cmd.Int("limit"))})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]submissionJSON, len(subs))
		for i, s := range subs {
			out[i] = submissionJSON{
				ID:        s.ID(),
				Sequence:  s.Sequence(),
				Kind:      string(s.Kind()),
				Filename:  s.Filename(),
				MIMEType:  s.MIMEType(),
				Size:      s.Size(),
				Emotion:   s.Emotion(),
				CreatedAt: s.CreatedAt().UTC().Format("2006-01-02T15:04:05Z"),
			}
		}
		return r.writeJSON(out, true)
	}

	return r.writeFormatted(cmd, func(f formatter.Format) ([]byte, error) {
		return formatter.FormatSubmissions(subs, f)
	})
}
