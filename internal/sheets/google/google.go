package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"familyfinance/internal/log"
	ports "familyfinance/internal/sheets"
)

// Ensure interface conformance
var _ ports.JournalWriter = (*Client)(nil)

type Config struct {
	SpreadsheetID string
	SheetName     string
	// Service account key, inline or read from CredentialsFile
	CredentialsJSON string
	CredentialsFile string
	// OAuth user credentials, used when no service account is set
	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string
	// Extra client options, e.g. a custom endpoint
	Options []goption.ClientOption
}

// Client appends journal rows to one sheet of a spreadsheet
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Journal"
	}
	logger = logger.WithComponent(log.ComponentSheets)

	opts := append([]goption.ClientOption(nil), cfg.Options...)
	switch {
	case cfg.CredentialsJSON != "" || cfg.CredentialsFile != "":
		creds, err := loadCredentials(cfg.CredentialsJSON, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Using service account credentials", "credentials_size", len(creds))
		opts = append(opts,
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	case cfg.OAuthClientJSON != "" || cfg.OAuthClientFile != "":
		ts, err := oauthTokenSource(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Using OAuth user credentials")
		opts = append(opts, goption.WithTokenSource(ts))
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.Info("Google Sheets service created", "spreadsheet_id", spreadsheetID, "sheet", sheetName)
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

func loadCredentials(inline, file string) ([]byte, error) {
	data, err := readInlineOrFile(inline, file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	if data == nil {
		return nil, errors.New("missing service account credentials")
	}
	return data, nil
}

// AppendChange writes row after the last filled row of the journal sheet and
// returns the range it landed in.
func (c *Client) AppendChange(ctx context.Context, row ports.Row) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:I", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row.Values()}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to append to sheet %s: %w", c.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Journal row appended",
		log.FieldBucket, row.Bucket,
		log.FieldRecordID, row.ID,
		"sheets_ref", ref)
	return ref, nil
}

// EnsureHeader writes the column names into the first row when it is empty
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A1:I1", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", c.sheetName, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{ports.Header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", c.sheetName, err)
	}
	c.logger.InfoContext(ctx, "Journal header written", "sheet", c.sheetName)
	return nil
}
