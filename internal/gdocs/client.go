package gdocs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	docs "google.golang.org/api/docs/v1"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dgallion1/docreview/internal/annotate"
	"github.com/dgallion1/docreview/internal/doctree"
)

// Scopes requested for the service account. Commenting on a document that
// was only shared with the account needs the full drive scope; drive.file
// covers just the files the app itself created or opened.
var Scopes = []string{docs.DocumentsScope, drive.DriveScope}

// Client reads documents through the Docs API and writes comments through
// the Drive API, which is where Docs comments live.
type Client struct {
	docs  *docs.Service
	drive *drive.Service
}

// New wraps already constructed services.
func New(d *docs.Service, dr *drive.Service) *Client {
	return &Client{docs: d, drive: dr}
}

// NewFromCredentials loads a service-account key from credentialsFile, or
// application default credentials when the path is empty.
func NewFromCredentials(ctx context.Context, credentialsFile string) (*Client, error) {
	var (
		creds *google.Credentials
		err   error
	)
	if credentialsFile != "" {
		data, rerr := os.ReadFile(credentialsFile)
		if rerr != nil {
			return nil, fmt.Errorf("read credentials: %w", rerr)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, Scopes...)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, Scopes...)
	}
	if err != nil {
		return nil, fmt.Errorf("load google credentials: %w", err)
	}
	return NewWithOptions(ctx, option.WithCredentials(creds))
}

// NewWithOptions builds both services from the same client options.
func NewWithOptions(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	d, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("docs service: %w", err)
	}
	dr, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return New(d, dr), nil
}

// Fetch returns the document's title and body in native offsets.
func (c *Client) Fetch(ctx context.Context, docID string) (*doctree.Document, error) {
	doc, err := c.docs.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", docID, mapError(err))
	}
	return convert(doc), nil
}

func convert(doc *docs.Document) *doctree.Document {
	out := &doctree.Document{Title: doc.Title}
	if doc.Body == nil {
		return out
	}
	for _, se := range doc.Body.Content {
		if se == nil {
			continue
		}
		el := doctree.Element{
			Start: doctree.NativeIndex(se.StartIndex),
			End:   doctree.NativeIndex(se.EndIndex),
		}
		if se.Paragraph != nil {
			pe := &doctree.ParagraphElement{}
			for _, e := range se.Paragraph.Elements {
				if e == nil || e.TextRun == nil {
					continue
				}
				pe.Runs = append(pe.Runs, doctree.TextRun{
					Text:  e.TextRun.Content,
					Start: doctree.NativeIndex(e.StartIndex),
					End:   doctree.NativeIndex(e.EndIndex),
				})
			}
			el.Paragraph = pe
		}
		out.Body = append(out.Body, el)
	}
	return out
}

// InsertStyledText inserts text at `at` and styles exactly the inserted
// range in one batch update.
func (c *Client) InsertStyledText(ctx context.Context, docID, text string, at doctree.NativeIndex, style annotate.Style) error {
	start := int64(at)
	end := start + utf16Len(text)
	req := &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{
			{InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: start},
				Text:     text,
			}},
			{UpdateTextStyle: &docs.UpdateTextStyleRequest{
				Range:     &docs.Range{StartIndex: start, EndIndex: end},
				TextStyle: textStyle(style),
				Fields:    "foregroundColor,italic,fontSize",
			}},
		},
	}
	if _, err := c.docs.Documents.BatchUpdate(docID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("batch update %s: %w", docID, mapError(err))
	}
	return nil
}

func textStyle(s annotate.Style) *docs.TextStyle {
	ts := &docs.TextStyle{
		ForegroundColor: &docs.OptionalColor{Color: &docs.Color{RgbColor: &docs.RgbColor{
			Red:   s.Color.Red,
			Green: s.Color.Green,
			Blue:  s.Color.Blue,
		}}},
		Italic: s.Italic,
	}
	if s.FontSizePt > 0 {
		ts.FontSize = &docs.Dimension{Magnitude: s.FontSizePt, Unit: "PT"}
	}
	if !s.Italic {
		ts.ForceSendFields = []string{"Italic"}
	}
	return ts
}

// AddComment creates a Drive comment anchored to the native range.
func (c *Client) AddComment(ctx context.Context, docID, body, quoted string, anchor doctree.Anchor) error {
	comment := &drive.Comment{
		Content: body,
		Anchor:  anchorJSON(anchor),
	}
	if quoted != "" {
		comment.QuotedFileContent = &drive.CommentQuotedFileContent{
			MimeType: "text/plain",
			Value:    quoted,
		}
	}
	if _, err := c.drive.Comments.Create(docID, comment).Fields("id").Context(ctx).Do(); err != nil {
		return fmt.Errorf("create comment on %s: %w", docID, mapError(err))
	}
	return nil
}

func anchorJSON(a doctree.Anchor) string {
	return fmt.Sprintf(`{"r":"head","a":[{"txt":{"o":%d,"l":%d}}]}`, a.Start, a.End-a.Start)
}

// Docs indexes count UTF-16 code units.
func utf16Len(s string) int64 {
	var n int64
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// mapError translates API status codes to the annotate sentinels.
func mapError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch gerr.Code {
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", annotate.ErrPermissionDenied, gerr.Message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", annotate.ErrNotFound, gerr.Message)
	default:
		return err
	}
}
