package excel

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"billingdash/internal/api"
	"billingdash/internal/querycache"
	"billingdash/pkg/models"
)

// buildWorkbook renders a small xlsx with a username-keyed sheet.
func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	wb := excelize.NewFile()
	cells := [][]any{
		{"username", "plan", "amount", "active"},
		{"alice", "fiber-100", 49.99, true},
		{"bob", "dsl-20", 19.5, false},
	}
	for r, row := range cells {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, wb.SetCellValue("Sheet1", cell, v))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))
	return buf.Bytes()
}

func newSheetServer(t *testing.T, workbook []byte) (*Service, *[]api.UpdateSheetRequest) {
	t.Helper()
	var saved []api.UpdateSheetRequest
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/excel/list":
			json.NewEncoder(w).Encode(api.ListFilesResponse{
				Files: []models.FileObject{{FileName: "subs.xlsx", URL: "ignored"}},
			})
		case "/excel/signedUrl":
			json.NewEncoder(w).Encode(api.SignedURLResponse{URL: srv.URL + "/download"})
		case "/download":
			w.Write(workbook)
		case "/excel/update":
			var req api.UpdateSheetRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			saved = append(saved, req)
			w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL, 5*time.Second)
	require.NoError(t, err)
	return NewService(client, querycache.New(), 0, 0), &saved
}

func TestLoadSheetDecodesTypedCells(t *testing.T) {
	svc, _ := newSheetServer(t, buildWorkbook(t))

	sheet, err := svc.LoadSheet(context.Background(), "subs.xlsx")
	require.NoError(t, err)
	require.Equal(t, []string{"username", "plan", "amount", "active"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)

	require.Equal(t, "alice", sheet.Rows[0]["username"])
	require.Equal(t, 49.99, sheet.Rows[0]["amount"])
	require.Equal(t, true, sheet.Rows[0]["active"])
	require.Equal(t, false, sheet.Rows[1]["active"])
}

func TestSetCellTracksUpdatesAndEditedRows(t *testing.T) {
	svc, _ := newSheetServer(t, buildWorkbook(t))
	sheet, err := svc.LoadSheet(context.Background(), "subs.xlsx")
	require.NoError(t, err)

	require.NoError(t, sheet.SetCell(1, "plan", "fiber-500"))
	require.True(t, sheet.Edited(1))
	require.False(t, sheet.Edited(0))
	require.True(t, sheet.Dirty())

	updates := sheet.Updates()
	require.Len(t, updates, 1)
	require.Equal(t, models.CellUpdate{Username: "bob", Field: "plan", Value: "fiber-500"}, updates[0])

	require.ErrorIs(t, sheet.SetCell(9, "plan", "x"), ErrRowOutOfRange)
	require.ErrorIs(t, sheet.SetCell(0, "nope", "x"), ErrUnknownColumn)
}

func TestSaveShipsEditsAndClearsLog(t *testing.T) {
	svc, saved := newSheetServer(t, buildWorkbook(t))
	sheet, err := svc.LoadSheet(context.Background(), "subs.xlsx")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Save(context.Background(), sheet), ErrNoEdits)

	require.NoError(t, sheet.SetCell(0, "amount", 59.99))
	require.NoError(t, svc.Save(context.Background(), sheet))

	require.Len(t, *saved, 1)
	require.Equal(t, "subs.xlsx", (*saved)[0].FileID)
	require.False(t, sheet.Dirty())
	require.True(t, sheet.Edited(0), "edited highlight survives save")
}

func TestLoadSheetRejectsGarbage(t *testing.T) {
	svc, _ := newSheetServer(t, []byte("not a workbook"))
	_, err := svc.LoadSheet(context.Background(), "subs.xlsx")
	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
}

func TestListFilesCached(t *testing.T) {
	svc, _ := newSheetServer(t, buildWorkbook(t))
	files, err := svc.ListFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "subs.xlsx", files[0].FileName)
}
