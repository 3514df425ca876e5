// package formatter renders leftover drafts and favorite results as CSV, Markdown, JSON, or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/shared"
)

// Format names an output format accepted by [RenderDrafts].
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// ParseFormat resolves a format name, case-insensitively. An empty name means [FormatText].
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return FormatText, nil
	}
	f := Format(strings.ToLower(name))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
}

// DraftView is the exported shape of a [models.Draft].
type DraftView struct {
	ID          string             `json:"id"`
	Sequence    int                `json:"sequence"`
	Action      models.DraftAction `json:"action"`
	AccountKeys []string           `json:"account_keys"`
	StatusID    string             `json:"status_id,omitempty"`
	Text        string             `json:"text,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	Sending     bool               `json:"sending"`
	Extras      json.RawMessage    `json:"extras,omitempty"`
	Status      *models.Status     `json:"-"`
}

// NewDraftView flattens a draft. The status snapshot is decoded when the payload holds one.
func NewDraftView(d *models.Draft, sending bool) DraftView {
	keys := make([]string, 0, len(d.AccountKeys()))
	for _, k := range d.AccountKeys() {
		keys = append(keys, k.String())
	}

	view := DraftView{
		ID:          d.ID(),
		Sequence:    d.Sequence(),
		Action:      d.Action(),
		AccountKeys: keys,
		CreatedAt:   d.CreatedAt(),
		Sending:     sending,
		Extras:      d.Extras(),
	}

	if extras, err := d.StatusExtras(); err == nil && extras.Status.ID != "" {
		status := extras.Status
		view.Status = &status
		view.StatusID = status.ID
		view.Text = status.Text
	}
	return view
}

// DraftsToCSV writes one row per draft with columns: ID, Sequence, Action, Accounts, Status, Created, Sending
func DraftsToCSV(drafts []DraftView) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Sequence", "Action", "Accounts", "Status", "Created", "Sending"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, d := range drafts {
		record := []string{
			d.ID,
			strconv.Itoa(d.Sequence),
			string(d.Action),
			strings.Join(d.AccountKeys, " "),
			d.StatusID,
			d.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatBool(d.Sending),
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

// DraftsToMarkdown renders drafts as a Markdown list under a heading.
func DraftsToMarkdown(drafts []DraftView) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Leftover drafts\n\n")
	buf.WriteString(fmt.Sprintf("**Drafts**: %d\n\n", len(drafts)))

	for i, d := range drafts {
		line := fmt.Sprintf("%d. `%s` %s status %s for %s", i+1, shortID(d.ID), d.Action, d.StatusID, strings.Join(d.AccountKeys, ", "))
		if d.Sending {
			line += " _(sending)_"
		}
		buf.WriteString(line + "\n")
		if d.Text != "" {
			buf.WriteString(fmt.Sprintf("   > %s\n", d.Text))
		}
	}

	return buf.Bytes(), nil
}

// DraftsToText renders drafts one per line.
func DraftsToText(drafts []DraftView) ([]byte, error) {
	var buf bytes.Buffer

	if len(drafts) == 0 {
		buf.WriteString("No leftover drafts\n")
		return buf.Bytes(), nil
	}

	buf.WriteString(fmt.Sprintf("Drafts: %d\n\n", len(drafts)))
	for _, d := range drafts {
		marker := " "
		if d.Sending {
			marker = "*"
		}
		buf.WriteString(fmt.Sprintf("%s %s  %-8s %-20s %s  (%s)\n",
			marker, d.ID, d.Action, d.StatusID, strings.Join(d.AccountKeys, ","), d.CreatedAt.Local().Format(time.DateTime)))
	}

	return buf.Bytes(), nil
}

// DraftsToJSON renders drafts as an indented JSON array.
func DraftsToJSON(drafts []DraftView) ([]byte, error) {
	if drafts == nil {
		drafts = []DraftView{}
	}
	return marshalJSON(drafts)
}

// RenderDrafts renders drafts in the requested format.
func RenderDrafts(format Format, drafts []DraftView) ([]byte, error) {
	switch format {
	case FormatCSV:
		return DraftsToCSV(drafts)
	case FormatMarkdown:
		return DraftsToMarkdown(drafts)
	case FormatJSON:
		return DraftsToJSON(drafts)
	case FormatText, "":
		return DraftsToText(drafts)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ResultToText summarizes a favorite result in one line followed by mentions, if any.
func ResultToText(account models.AccountKey, result *models.FavoriteResult) []byte {
	var buf bytes.Buffer

	state := "not favorited"
	if result.IsFavorite {
		state = "favorited"
	}
	buf.WriteString(fmt.Sprintf("Status %s %s by %s (replies %d, reposts %d, favorites %d)\n",
		result.StatusID, state, account, result.ReplyCount, result.RepostCount, result.FavoriteCount))

	if len(result.Mentions) > 0 {
		mentions := make([]string, 0, len(result.Mentions))
		for _, m := range result.Mentions {
			mentions = append(mentions, m.String())
		}
		buf.WriteString(fmt.Sprintf("Mentions: %s\n", strings.Join(mentions, ", ")))
	}
	return buf.Bytes()
}

// RenderResult renders a favorite result as text or JSON. Other formats fall back to text.
func RenderResult(format Format, account models.AccountKey, result *models.FavoriteResult) ([]byte, error) {
	if format == FormatJSON {
		return marshalJSON(result)
	}
	return ResultToText(account, result), nil
}

// WriteDraftsExport renders drafts and writes them to path.
//
// Defaults to drafts.{ext} where ext follows the format.
func WriteDraftsExport(format Format, drafts []DraftView, path string) (string, error) {
	if path == "" {
		path = "drafts." + extension(format)
	}

	data, err := RenderDrafts(format, drafts)
	if err != nil {
		return "", fmt.Errorf("failed to render drafts: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write drafts file: %w", err)
	}

	return path, nil
}

func extension(format Format) string {
	switch format {
	case FormatCSV:
		return "csv"
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
