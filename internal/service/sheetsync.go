package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"license-auth-api/internal/model"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetSyncService mirrors the license table into a Google Sheet so
// operators can eyeball issued keys without touching the database. The
// mirror is advisory: sync failures are reported to the caller and
// logged there, never propagated into a request outcome.
//
// A nil *SheetSyncService is a valid no-op instance (sync disabled).
type SheetSyncService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewSheetSyncService(enableSync bool, credentialPath, spreadsheetID, sheetName string) (*SheetSyncService, error) {
	if !enableSync {
		return nil, nil
	}

	ctx := context.Background()

	b, err := os.ReadFile(credentialPath)
	if err != nil {
		return nil, err
	}

	creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("load sheet credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}

	return &SheetSyncService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// SyncLicense upserts one license row, matched by key in column A.
func (s *SheetSyncService) SyncLicense(license *model.License) error {
	if s == nil {
		return nil
	}

	rowIndex, found, err := s.findRow(license.Key)
	if err != nil {
		return err
	}

	hwid := ""
	if license.Hwid != nil {
		hwid = *license.Hwid
	}
	values := [][]interface{}{{
		license.Key,
		hwid,
		license.ExpiresAt,
		license.Plan,
		license.CreatedAt.Format(time.RFC3339),
		"active",
	}}

	if found {
		rangeData := fmt.Sprintf("%s!A%d:F%d", s.sheetName, rowIndex, rowIndex)
		_, err = s.service.Spreadsheets.Values.Update(
			s.spreadsheetID,
			rangeData,
			&sheets.ValueRange{Values: values},
		).ValueInputOption("USER_ENTERED").Do()
	} else {
		_, err = s.service.Spreadsheets.Values.Append(
			s.spreadsheetID,
			s.sheetName+"!A2:F",
			&sheets.ValueRange{Values: values},
		).ValueInputOption("USER_ENTERED").Do()
	}
	if err != nil {
		return fmt.Errorf("sync license %s to sheet: %w", license.Key, err)
	}
	return nil
}

// MarkDeleted flags a license row as deleted instead of removing it, so
// the sheet keeps an audit trail of revoked keys.
func (s *SheetSyncService) MarkDeleted(key string) error {
	if s == nil {
		return nil
	}

	rowIndex, found, err := s.findRow(key)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	rangeData := fmt.Sprintf("%s!F%d", s.sheetName, rowIndex)
	_, err = s.service.Spreadsheets.Values.Update(
		s.spreadsheetID,
		rangeData,
		&sheets.ValueRange{Values: [][]interface{}{{"deleted"}}},
	).ValueInputOption("USER_ENTERED").Do()
	if err != nil {
		return fmt.Errorf("mark license %s deleted in sheet: %w", key, err)
	}
	return nil
}

// findRow locates the sheet row holding key, if any. Data rows start at
// A2; the returned index is 1-based as the Sheets API expects.
func (s *SheetSyncService) findRow(key string) (int, bool, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A2:A").Do()
	if err != nil {
		return 0, false, fmt.Errorf("read sheet keys: %w", err)
	}
	for i, row := range resp.Values {
		if len(row) > 0 && row[0] == key {
			return i + 2, true, nil
		}
	}
	return 0, false, nil
}
