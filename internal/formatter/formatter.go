// Package formatter exports lists to CSV, Markdown, JSON and plain text.
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

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/shared"
)

// Export is a list with its members and, optionally, each member's rating aggregate.
type Export struct {
	List    models.PlaylistDetail
	Ratings map[int]models.RatingAggregate // by track id, may be nil
}

func (e *Export) rating(trackID int) models.RatingAggregate {
	if agg, ok := e.Ratings[trackID]; ok {
		return agg
	}
	return models.Unrated(trackID)
}

// baseName is the default file stem for an export.
func (e *Export) baseName() string {
	return fmt.Sprintf("list_%d", e.List.ID)
}

// ExportToCSV converts an Export to CSV with columns: Position, ID, Title, Artist, Album, Added, Rating, Reviews
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artist", "Album", "Added", "Rating", "Reviews"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, item := range export.List.Items {
		agg := export.rating(item.TrackID)
		mean := ""
		if agg.HasRating() {
			mean = agg.MeanString()
		}
		record := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(item.TrackID),
			item.Title,
			item.Artist,
			item.Album,
			item.AddedAt,
			mean,
			strconv.Itoa(agg.Count),
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

// ExportToMarkdown converts an Export to Markdown with an optional cover image
func ExportToMarkdown(export *Export, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer
	list := export.List

	fmt.Fprintf(&buf, "# %s\n\n", list.Name)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	if list.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", list.Description)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", list.SongCount)
	fmt.Fprintf(&buf, "**Visibility**: %s\n\n", shared.VisibilityString(list.Public))

	buf.WriteString("## Tracks\n\n")
	if len(list.Items) == 0 {
		buf.WriteString("_No tracks yet._\n")
	}
	for i, item := range list.Items {
		albumPart := ""
		if item.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", item.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, item.Artist, item.Title, albumPart, export.rating(item.TrackID).MeanString())
	}

	return buf.Bytes(), nil
}

// ExportToText converts an Export to plain text
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	list := export.List

	fmt.Fprintf(&buf, "List: %s\n", list.Name)
	if list.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", list.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", list.SongCount)

	for i, item := range list.Items {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, item.Artist, item.Title)
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes the list with its members, indented.
func ExportToJSON(export *Export) ([]byte, error) {
	return shared.MarshalJSON(export.List, true)
}

// ToMetadataJSON generates a JSON representation of list metadata (without members)
func ToMetadataJSON(list models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(list, true)
}

// DownloadImage downloads an image from url with client and returns the raw bytes. A nil client uses a
// 30 second timeout.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
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

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a list to CSV with an accompanying metadata JSON file.
//
// The base path defaults to list_{id} and produces {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *Export, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.baseName()
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.List.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
	Warnings   []string
}

// WriteMarkdownExport exports a list to Markdown in a dedicated directory, list_{id} by default.
//
// When the list has a cover URL the image is downloaded to {dir}/cover.jpg. A failed download is reported in
// Warnings and the export continues without it.
func WriteMarkdownExport(ctx context.Context, client *http.Client, export *Export, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.baseName()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL := export.List.CoverURL; imageURL != "" {
		imageData, err := DownloadImage(ctx, client, imageURL)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to download cover image: %v", err))
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("failed to save cover image: %v", err))
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a list to plain text, list_{id}_tracks.txt by default.
func WriteTextExport(export *Export, path string) (string, error) {
	if path == "" {
		path = export.baseName() + "_tracks.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}
