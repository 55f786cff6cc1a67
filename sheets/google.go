package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	// RAW keeps user text as typed: no formulas, no locale date parsing.
	valueInputOption  = "RAW"
	defaultSheetRows  = 1000
	minSheetColumns   = 10
	worksheetFieldSet = "properties.title,sheets.properties.title"
)

// LoadCredentials returns the service account JSON, preferring the inline
// value (a secret store) over the credentials file.
func LoadCredentials(inline, path string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	if path == "" {
		return nil, fmt.Errorf("%w: no credentials configured", ErrCredentials)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: credentials file %s not found", ErrCredentials, path)
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrCredentials, path, err)
	}
	return data, nil
}

// GoogleStore talks to the Google Sheets v4 API.
type GoogleStore struct {
	svc *gsheets.Service
}

// NewGoogleStore authenticates with a service account credential.
func NewGoogleStore(ctx context.Context, credentialsJSON []byte) (*GoogleStore, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentials, err)
	}
	return newGoogleStore(ctx, option.WithCredentials(creds))
}

func newGoogleStore(ctx context.Context, opts ...option.ClientOption) (*GoogleStore, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create sheets client: %v", ErrCredentials, err)
	}
	return &GoogleStore{svc: svc}, nil
}

func (g *GoogleStore) spreadsheet(ctx context.Context, spreadsheetID string) (*gsheets.Spreadsheet, error) {
	ss, err := g.svc.Spreadsheets.Get(spreadsheetID).Fields(worksheetFieldSet).Context(ctx).Do()
	if err != nil {
		return nil, classify("open spreadsheet "+spreadsheetID, err)
	}
	if ss.Properties == nil {
		return nil, fmt.Errorf("spreadsheet %s: %w", spreadsheetID, ErrMalformed)
	}
	return ss, nil
}

func (g *GoogleStore) Title(ctx context.Context, spreadsheetID string) (string, error) {
	ss, err := g.spreadsheet(ctx, spreadsheetID)
	if err != nil {
		return "", err
	}
	return ss.Properties.Title, nil
}

func (g *GoogleStore) Worksheets(ctx context.Context, spreadsheetID string) ([]string, error) {
	ss, err := g.spreadsheet(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh == nil || sh.Properties == nil {
			continue
		}
		titles = append(titles, sh.Properties.Title)
	}
	return titles, nil
}

func (g *GoogleStore) ReadGrid(ctx context.Context, spreadsheetID, worksheet string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, qualify(worksheet, "")).Context(ctx).Do()
	if err != nil {
		return nil, classify("read worksheet "+worksheet, err)
	}
	grid := make([][]string, len(resp.Values))
	for i, line := range resp.Values {
		cells := make([]string, len(line))
		for j, v := range line {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		grid[i] = cells
	}
	return grid, nil
}

func (g *GoogleStore) AppendRows(ctx context.Context, spreadsheetID, worksheet string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	vr := &gsheets.ValueRange{Values: toValues(rows)}
	_, err := g.svc.Spreadsheets.Values.Append(spreadsheetID, qualify(worksheet, "A1"), vr).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return classify("append rows to "+worksheet, err)
	}
	return nil
}

func (g *GoogleStore) UpdateRange(ctx context.Context, spreadsheetID, worksheet, a1 string, rows [][]string) error {
	vr := &gsheets.ValueRange{Values: toValues(rows)}
	_, err := g.svc.Spreadsheets.Values.Update(spreadsheetID, qualify(worksheet, a1), vr).
		ValueInputOption(valueInputOption).
		Context(ctx).Do()
	if err != nil {
		return classify("update "+worksheet+"!"+a1, err)
	}
	return nil
}

func (g *GoogleStore) AddWorksheet(ctx context.Context, spreadsheetID, title string, headers []string) error {
	cols := int64(len(headers))
	if cols < minSheetColumns {
		cols = minSheetColumns
	}
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title: title,
					GridProperties: &gsheets.GridProperties{
						RowCount:    defaultSheetRows,
						ColumnCount: cols,
					},
				},
			},
		}},
	}
	if _, err := g.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return classify("add worksheet "+title, err)
	}
	if len(headers) == 0 {
		return nil
	}
	return g.UpdateRange(ctx, spreadsheetID, title, Span(1, 1, 1, len(headers)), [][]string{headers})
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		line := make([]interface{}, len(r))
		for j, c := range r {
			line[j] = c
		}
		out[i] = line
	}
	return out
}
