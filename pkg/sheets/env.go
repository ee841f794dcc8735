package sheets

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fitelo/sales-dashboard/pkg/retry"
	"github.com/fitelo/sales-dashboard/pkg/utils"
	"go.uber.org/zap"
)

// SourceFromEnv picks the backend from the environment. XLSX_PATH selects a
// local workbook; otherwise GOOGLE_SHEET_ID and GOOGLE_SERVICE_ACCOUNT (the
// key JSON itself, or a path to it) select the Sheets API, tuned by
// SHEETS_RPS, SHEETS_MAX_RETRIES and SHEETS_TIMEOUT.
func SourceFromEnv(logger *zap.Logger) (Source, error) {
	if path := utils.Env("XLSX_PATH", ""); path != "" {
		wb, err := NewWorkbook(path)
		if err != nil {
			return nil, err
		}
		logger.Info("Using local workbook", zap.String("path", path))
		return wb, nil
	}

	sheetID := utils.Env("GOOGLE_SHEET_ID", "")
	if sheetID == "" {
		return nil, errors.New("GOOGLE_SHEET_ID is required when XLSX_PATH is not set")
	}
	creds, err := loadCredentials(utils.Env("GOOGLE_SERVICE_ACCOUNT", ""))
	if err != nil {
		return nil, err
	}

	rc := retry.DefaultConfig()
	rc.MaxRetries = utils.EnvInt("SHEETS_MAX_RETRIES", rc.MaxRetries)

	client, err := NewClient(Opts{
		SpreadsheetID: sheetID,
		Credentials:   creds,
		Timeout:       utils.EnvDuration("SHEETS_TIMEOUT", 15*time.Second),
		RPS:           utils.EnvInt("SHEETS_RPS", 1),
		Retry:         rc,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Using Google Sheets", zap.String("spreadsheetId", sheetID))
	return client, nil
}

func loadCredentials(v string) ([]byte, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return nil, errors.New("GOOGLE_SERVICE_ACCOUNT is required when XLSX_PATH is not set")
	case strings.HasPrefix(v, "{"):
		return []byte(v), nil
	default:
		b, err := os.ReadFile(v)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
}
