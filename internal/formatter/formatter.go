// package formatter renders profiles, classification results and the submission log as
// plain text, Markdown or CSV.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/shared"
)

// Format is an output format accepted by the --format flag.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
)

// ParseFormat validates a --format value. An empty value selects [Text].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Text, nil
	case Text, Markdown, CSV:
		return f, nil
	case "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, markdown or csv)", shared.ErrInvalidArgument, s)
	}
}

const timeLayout = "2006-01-02 15:04"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

// FormatProfile renders the user's mood history and recommendations.
func FormatProfile(p models.Profile, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return profileToCSV(p)
	case Markdown:
		return profileToMarkdown(p), nil
	default:
		return profileToText(p), nil
	}
}

// FormatResult renders a classification result and its recommendations.
func FormatResult(r *models.ClassificationResult, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return recommendationsToCSV(r.Recommendations)
	case Markdown:
		return resultToMarkdown(r, ""), nil
	default:
		return resultToText(r), nil
	}
}

// FormatSubmissions renders the local submission log.
func FormatSubmissions(subs []*models.Submission, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return submissionsToCSV(subs)
	case Markdown:
		return submissionsToMarkdown(subs), nil
	default:
		return submissionsToText(subs), nil
	}
}

func profileToText(p models.Profile) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "User: %s", p.Username)
	if p.Email != "" {
		fmt.Fprintf(&buf, " <%s>", p.Email)
	}
	buf.WriteString("\n\n")

	fmt.Fprintf(&buf, "Recent moods: %d\n", len(p.RecentMoods))
	for i, m := range p.RecentMoods {
		fmt.Fprintf(&buf, "%d. %s (%s)\n", i+1, m.Label(), formatTime(m.Timestamp))
	}

	fmt.Fprintf(&buf, "\nRecent recommendations: %d\n", len(p.RecentRecommendations))
	writeTextRecommendations(&buf, p.RecentRecommendations)
	return buf.Bytes()
}

func profileToMarkdown(p models.Profile) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Username)
	if p.Email != "" {
		fmt.Fprintf(&buf, "**Email**: %s\n\n", p.Email)
	}

	buf.WriteString("## Recent Moods\n\n")
	if len(p.RecentMoods) == 0 {
		buf.WriteString("_No moods yet._\n")
	}
	for i, m := range p.RecentMoods {
		fmt.Fprintf(&buf, "%d. **%s** (%s)\n", i+1, m.Label(), formatTime(m.Timestamp))
	}

	buf.WriteString("\n## Recent Recommendations\n\n")
	if len(p.RecentRecommendations) == 0 {
		buf.WriteString("_No recommendations yet._\n")
	}
	writeMarkdownRecommendations(&buf, p.RecentRecommendations)
	return buf.Bytes()
}

func profileToCSV(p models.Profile) ([]byte, error) {
	rows := [][]string{{"Type", "Index", "Emotion", "Title", "Artist", "Album", "URL", "Timestamp"}}
	for i, m := range p.RecentMoods {
		ts := ""
		if !m.Timestamp.IsZero() {
			ts = m.Timestamp.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{"mood", strconv.Itoa(i), m.Emotion, "", "", "", "", ts})
	}
	for i, r := range p.RecentRecommendations {
		rows = append(rows, []string{"recommendation", strconv.Itoa(i), r.Emotion, r.Title(), r.By(), r.Album, r.ExternalURL, ""})
	}
	return writeCSV(rows)
}

func resultToText(r *models.ClassificationResult) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Emotion: %s\n", r.Emotion)
	if r.Message != "" {
		fmt.Fprintf(&buf, "%s\n", r.Message)
	}
	if len(r.Recommendations) > 0 {
		fmt.Fprintf(&buf, "\nRecommendations: %d\n", len(r.Recommendations))
		writeTextRecommendations(&buf, r.Recommendations)
	}
	return buf.Bytes()
}

func resultToMarkdown(r *models.ClassificationResult, imageFilename string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Feeling %s\n\n", r.Emotion)
	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}
	if r.Message != "" {
		fmt.Fprintf(&buf, "%s\n\n", r.Message)
	}

	buf.WriteString("## Recommendations\n\n")
	if len(r.Recommendations) == 0 {
		buf.WriteString("_No recommendations._\n")
	}
	writeMarkdownRecommendations(&buf, r.Recommendations)
	return buf.Bytes()
}

func recommendationsToCSV(recs []models.Recommendation) ([]byte, error) {
	rows := [][]string{{"TrackID", "Title", "Artist", "Album", "Emotion", "URL"}}
	for _, r := range recs {
		rows = append(rows, []string{r.TrackID, r.Title(), r.By(), r.Album, r.Emotion, r.ExternalURL})
	}
	return writeCSV(rows)
}

func writeTextRecommendations(buf *bytes.Buffer, recs []models.Recommendation) {
	for i, r := range recs {
		fmt.Fprintf(buf, "%d. %s - %s\n", i+1, r.By(), r.Title())
	}
}

func writeMarkdownRecommendations(buf *bytes.Buffer, recs []models.Recommendation) {
	for i, r := range recs {
		title := r.Title()
		if r.ExternalURL != "" {
			title = fmt.Sprintf("[%s](%s)", title, r.ExternalURL)
		}
		albumPart := ""
		if r.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", r.Album)
		}
		fmt.Fprintf(buf, "%d. %s - %s%s\n", i+1, r.By(), title, albumPart)
	}
}

func submissionsToText(subs []*models.Submission) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Submissions: %d\n\n", len(subs))
	for _, s := range subs {
		name := s.Filename()
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(&buf, "%d. [%s] %s %s (%d bytes) -> %s\n", s.Sequence(), formatTime(s.CreatedAt()), s.Kind(), name, s.Size(), s.Emotion())
	}
	return buf.Bytes()
}

func submissionsToMarkdown(subs []*models.Submission) []byte {
	var buf bytes.Buffer
	buf.WriteString("# Submissions\n\n")
	buf.WriteString("| # | Time | Kind | File | Size | Emotion |\n")
	buf.WriteString("|---|------|------|------|------|---------|\n")
	for _, s := range subs {
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %d | %s |\n",
			s.Sequence(), formatTime(s.CreatedAt()), s.Kind(), s.Filename(), s.Size(), s.Emotion())
	}
	return buf.Bytes()
}

func submissionsToCSV(subs []*models.Submission) ([]byte, error) {
	rows := [][]string{{"ID", "Sequence", "Kind", "Filename", "MIMEType", "Size", "Emotion", "CreatedAt"}}
	for _, s := range subs {
		rows = append(rows, []string{
			s.ID(),
			strconv.Itoa(s.Sequence()),
			string(s.Kind()),
			s.Filename(),
			s.MIMEType(),
			strconv.FormatInt(s.Size(), 10),
			s.Emotion(),
			s.CreatedAt().UTC().Format(time.RFC3339),
		})
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			if i == 0 {
				return nil, fmt.Errorf("failed to write CSV headers: %w", err)
			}
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes a classification result to {dir}/README.md.
//
// The artwork of the first recommendation that has one is saved as {dir}/cover.jpg; a failed
// download is reported through warn and otherwise ignored.
func WriteMarkdownExport(r *models.ClassificationResult, outputDir string, warn io.Writer) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = r.Emotion
	}
	if warn == nil {
		warn = io.Discard
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var coverImageFilename string
	if imageURL := coverURL(r.Recommendations); imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(warn, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(warn, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, resultToMarkdown(r, coverImageFilename), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

func coverURL(recs []models.Recommendation) string {
	for _, r := range recs {
		if r.ImageURL != "" {
			return r.ImageURL
		}
	}
	return ""
}

// WriteExport writes rendered output to path, creating parent directories.
func WriteExport(data []byte, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
