// package formatter exports cached playlists to files (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/ncp/internal/models"
	"github.com/desertthunder/ncp/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts a format name or common alias.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// ExportToJSON encodes the whole entry, detail and tracks included.
func ExportToJSON(entry *models.CacheEntry, pretty bool) ([]byte, error) {
	return shared.MarshalJSON(entry, pretty)
}

// ExportToCSV converts tracks to CSV with columns: ID, Name, Artists, Album, Duration
func ExportToCSV(entry *models.CacheEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artists", "Album", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range entry.Tracks {
		record := []string{
			strconv.FormatInt(track.ID, 10),
			track.Name,
			track.ArtistLine(),
			track.AlbumName(),
			shared.FormatDuration(track.DurationMS),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the playlist as Markdown with an optional cover image
func ExportToMarkdown(entry *models.CacheEntry, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer
	d := entry.Detail

	fmt.Fprintf(&buf, "# %s\n\n", d.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Creator**: %s\n", d.Creator.Nickname)
	fmt.Fprintf(&buf, "**Plays**: %s\n", shared.FormatNumber(d.PlayCount))
	fmt.Fprintf(&buf, "**Subscribers**: %s\n", shared.FormatNumber(d.SubscribedCount))
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(entry.Tracks))
	fmt.Fprintf(&buf, "**Fetched**: %s\n\n", shared.FormatDate(entry.FetchedAt))
	fmt.Fprintf(&buf, "%s\n\n", d.DescriptionOrDefault())
	fmt.Fprintf(&buf, "[Open on NetEase](%s)\n\n", shared.PlaylistPageURL(strconv.FormatInt(d.ID, 10)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range entry.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s (%s) [%s]\n",
			i+1, track.ArtistLine(), track.Name, track.AlbumName(), shared.FormatDuration(track.DurationMS))
	}

	return buf.Bytes(), nil
}

// ExportToText converts the playlist to plain text
func ExportToText(entry *models.CacheEntry) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", entry.Detail.Name)
	if entry.Detail.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", entry.Detail.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(entry.Tracks))

	for i, track := range entry.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.ArtistLine(), track.Name)
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes.
// A nil client uses a 30 second timeout.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidInput)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
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

// ExportResult lists the files written by [Write].
type ExportResult struct {
	Format   Format
	Files    []string
	Warnings []string
}

// Options tune [Write].
type Options struct {
	Pretty     bool         // indent JSON
	CoverImage bool         // download the cover next to a Markdown export
	Client     *http.Client // used for the cover download
}

// Write exports entry in format to path.
//
// An empty path defaults to the playlist ID: {id}.json, {id}.csv, {id}.txt, or a
// Markdown directory {id}/README.md with cover.jpg when requested.
func Write(ctx context.Context, entry *models.CacheEntry, format Format, path string, opts Options) (*ExportResult, error) {
	base := path
	if base == "" {
		base = strconv.FormatInt(entry.Detail.ID, 10)
	}

	result := &ExportResult{Format: format}
	switch format {
	case FormatJSON, FormatCSV, FormatText:
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatJSON:
			data, err = ExportToJSON(entry, opts.Pretty)
		case FormatCSV:
			data, err = ExportToCSV(entry)
		default:
			data, err = ExportToText(entry)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s: %w", format, err)
		}

		file := base
		if path == "" {
			file = base + "." + string(format)
		}
		if err := os.WriteFile(file, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s file: %w", format, err)
		}
		result.Files = append(result.Files, file)

	case FormatMarkdown:
		if err := writeMarkdown(ctx, entry, base, opts, result); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}

	return result, nil
}

func writeMarkdown(ctx context.Context, entry *models.CacheEntry, dir string, opts Options, result *ExportResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var cover string
	if opts.CoverImage && entry.Detail.CoverImgURL != "" {
		data, err := DownloadImage(ctx, opts.Client, entry.Detail.CoverImgURL)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to download cover image: %v", err))
		} else {
			coverPath := filepath.Join(dir, "cover.jpg")
			if err := os.WriteFile(coverPath, data, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("failed to save cover image: %v", err))
			} else {
				cover = "cover.jpg"
				result.Files = append(result.Files, coverPath)
			}
		}
	}

	md, err := ExportToMarkdown(entry, cover)
	if err != nil {
		return fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(dir, "README.md")
	if err := os.WriteFile(mdFile, md, 0644); err != nil {
		return fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return nil
}
