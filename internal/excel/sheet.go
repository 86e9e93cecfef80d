package excel

import (
	"fmt"

	"billingdash/pkg/models"
)

// Sheet is a decoded worksheet plus its edit log. Edits are applied to
// the in-memory rows immediately and accumulated as CellUpdate records
// until Save ships them.
type Sheet struct {
	FileID  string
	Headers []string
	Rows    []models.SheetRow

	updates []models.CellUpdate
	edited  map[int]bool
}

// SetCell edits one cell, identified by row index and column header.
// The row must carry a username value, which keys the server-side
// update.
func (s *Sheet) SetCell(row int, field string, value models.CellValue) error {
	if row < 0 || row >= len(s.Rows) {
		return fmt.Errorf("%w: row %d", ErrRowOutOfRange, row)
	}
	if !s.hasColumn(field) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, field)
	}
	username, _ := s.Rows[row][keyColumn].(string)
	if username == "" {
		return fmt.Errorf("%w: row %d", ErrRowWithoutKey, row)
	}

	s.Rows[row][field] = value
	s.edited[row] = true
	s.updates = append(s.updates, models.CellUpdate{
		Username: username,
		Field:    field,
		Value:    value,
	})
	return nil
}

// Updates returns the accumulated edits in application order.
func (s *Sheet) Updates() []models.CellUpdate {
	out := make([]models.CellUpdate, len(s.updates))
	copy(out, s.updates)
	return out
}

// Edited reports whether a row has pending or saved edits, used to
// highlight touched rows in the viewer.
func (s *Sheet) Edited(row int) bool {
	return s.edited[row]
}

// Dirty reports whether unsaved edits exist.
func (s *Sheet) Dirty() bool {
	return len(s.updates) > 0
}

func (s *Sheet) hasColumn(field string) bool {
	for _, h := range s.Headers {
		if h == field {
			return true
		}
	}
	return false
}

func (s *Sheet) clearEdits() {
	s.updates = nil
}
