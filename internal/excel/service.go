// Package excel implements the spreadsheet viewer backend: listing
// uploaded workbook files, fetching them through short-lived signed
// URLs, decoding the first worksheet into rows and shipping tracked
// cell edits back to the server.
package excel

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"billingdash/internal/api"
	"billingdash/internal/logger"
	"billingdash/internal/querycache"
	"billingdash/pkg/models"
)

const resource = "files"

// keyColumn is the column identifying a row in update payloads. The
// uploaded sheets carry one row per user.
const keyColumn = "username"

// Service loads and saves spreadsheet data through the billing API.
type Service struct {
	client    *api.Client
	cache     *querycache.Cache
	staleTime time.Duration
	gcTime    time.Duration
}

// NewService wires the file queries onto a client and cache.
func NewService(client *api.Client, cache *querycache.Cache, staleTime, gcTime time.Duration) *Service {
	if staleTime <= 0 {
		staleTime = 10 * time.Minute
	}
	if gcTime <= 0 {
		gcTime = 60 * time.Minute
	}
	return &Service{client: client, cache: cache, staleTime: staleTime, gcTime: gcTime}
}

// ListFiles returns the uploaded workbook inventory, cached.
func (s *Service) ListFiles(ctx context.Context) ([]models.FileObject, error) {
	data, err := s.cache.Fetch(ctx, querycache.Key(resource), func(fetchCtx context.Context) (any, error) {
		return s.client.ListFiles(fetchCtx)
	}, querycache.Options{StaleTime: s.staleTime, GCTime: s.gcTime})
	if err != nil {
		return nil, err
	}
	return data.([]models.FileObject), nil
}

// LoadSheet fetches a workbook by file ID and decodes its first
// worksheet. The file is addressed as "uploads/<fileID>" when
// requesting the signed URL, matching the server's storage layout.
func (s *Service) LoadSheet(ctx context.Context, fileID string) (*Sheet, error) {
	log := logger.WithComponent("excel")

	url, err := s.client.SignedURL(ctx, "uploads/"+fileID)
	if err != nil {
		return nil, err
	}
	raw, err := s.client.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file_id", fileID).Int("bytes", len(raw)).Msg("Workbook downloaded")

	return decodeWorkbook(fileID, raw)
}

// Save posts the sheet's tracked edits. On success the edit log is
// cleared; the decoded rows already reflect the edits locally.
func (s *Service) Save(ctx context.Context, sheet *Sheet) error {
	updates := sheet.Updates()
	if len(updates) == 0 {
		return ErrNoEdits
	}
	err := s.client.UpdateSheet(ctx, api.UpdateSheetRequest{
		FileID:      sheet.FileID,
		UpdatedData: updates,
	})
	if err != nil {
		return err
	}
	sheet.clearEdits()
	return nil
}

func decodeWorkbook(fileID string, raw []byte) (*Sheet, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &DecodeError{FileID: fileID, Err: err}
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, &DecodeError{FileID: fileID, Err: err}
	}
	if len(rows) == 0 {
		return nil, ErrEmptyWorkbook
	}

	headers := rows[0]
	sheet := &Sheet{
		FileID:  fileID,
		Headers: headers,
		edited:  make(map[int]bool),
	}
	for _, raw := range rows[1:] {
		row := make(models.SheetRow, len(headers))
		for i, h := range headers {
			if i < len(raw) {
				row[h] = coerce(raw[i])
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

// coerce converts a raw cell string to a typed value the way the
// server-side decoder does: numbers and booleans come back typed,
// everything else stays a string. Empty cells are nil.
func coerce(s string) models.CellValue {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
