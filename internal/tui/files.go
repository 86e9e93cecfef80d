package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"billingdash/internal/excel"
	"billingdash/pkg/models"
)

// sheetRowsPerPage is the local page size of the sheet viewer. Sheet
// pagination is purely client-side; the whole workbook is in memory.
const sheetRowsPerPage = 50

type filesMode int

const (
	filesModeList filesMode = iota
	filesModeSheet
	filesModeEditCell
)

type filesLoadedMsg struct {
	files []models.FileObject
	err   error
}

type sheetLoadedMsg struct {
	sheet *excel.Sheet
	err   error
}

type sheetSavedMsg struct {
	err error
}

// filesModel lists uploaded workbooks and views/edits their sheets.
type filesModel struct {
	svc    *excel.Service
	styles Styles

	mode    filesMode
	files   []models.FileObject
	sheet   *excel.Sheet
	err     error
	loading bool

	cursor    int
	sheetRow  int
	sheetCol  int
	sheetPage int
	cellInput textinput.Model
	spin      spinner.Model

	width  int
	height int
}

func newFilesModel(svc *excel.Service, styles Styles) *filesModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	in := textinput.New()
	in.CharLimit = 128
	return &filesModel{svc: svc, styles: styles, spin: sp, cellInput: in}
}

func (m *filesModel) setSize(w, h int) {
	m.width, m.height = w, h
}

func (m *filesModel) capturingInput() bool {
	return m.mode == filesModeEditCell
}

func (m *filesModel) load() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		files, err := m.svc.ListFiles(context.Background())
		return filesLoadedMsg{files: files, err: err}
	})
}

func (m *filesModel) loadSheet(fileID string) tea.Cmd {
	m.loading = true
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		sheet, err := m.svc.LoadSheet(context.Background(), fileID)
		return sheetLoadedMsg{sheet: sheet, err: err}
	})
}

func (m *filesModel) saveSheet() tea.Cmd {
	return func() tea.Msg {
		return sheetSavedMsg{err: m.svc.Save(context.Background(), m.sheet)}
	}
}

func (m *filesModel) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case filesLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.files = msg.files
			if m.cursor >= len(m.files) {
				m.cursor = 0
			}
		}
		return nil

	case sheetLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.sheet = msg.sheet
			m.mode = filesModeSheet
			m.sheetRow, m.sheetCol, m.sheetPage = 0, 0, 0
		}
		return nil

	case sheetSavedMsg:
		m.err = msg.err
		return nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return cmd

	case tea.KeyMsg:
		switch m.mode {
		case filesModeSheet:
			return m.updateSheet(msg)
		case filesModeEditCell:
			return m.updateCellEdit(msg)
		default:
			return m.updateList(msg)
		}
	}
	return nil
}

func (m *filesModel) updateList(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.files)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.files) {
			return m.loadSheet(m.files[m.cursor].FileName)
		}
	case "r":
		return m.load()
	}
	return nil
}

func (m *filesModel) updateSheet(msg tea.KeyMsg) tea.Cmd {
	pageRows := m.pageRows()
	switch msg.String() {
	case "esc":
		m.mode = filesModeList
		m.sheet = nil
	case "up", "k":
		if m.sheetRow > 0 {
			m.sheetRow--
		}
	case "down", "j":
		if m.sheetRow < len(pageRows)-1 {
			m.sheetRow++
		}
	case "left", "h":
		if m.sheetCol > 0 {
			m.sheetCol--
		}
	case "right", "l":
		if m.sheetCol < len(m.sheet.Headers)-1 {
			m.sheetCol++
		}
	case "n":
		if (m.sheetPage+1)*sheetRowsPerPage < len(m.sheet.Rows) {
			m.sheetPage++
			m.sheetRow = 0
		}
	case "p":
		if m.sheetPage > 0 {
			m.sheetPage--
			m.sheetRow = 0
		}
	case "e", "enter":
		if len(pageRows) == 0 {
			return nil
		}
		field := m.sheet.Headers[m.sheetCol]
		m.cellInput.SetValue(cellString(pageRows[m.sheetRow][field]))
		m.cellInput.Focus()
		m.mode = filesModeEditCell
		return textinput.Blink
	case "S":
		if m.sheet.Dirty() {
			return m.saveSheet()
		}
	}
	return nil
}

func (m *filesModel) updateCellEdit(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = filesModeSheet
		m.cellInput.Blur()
		return nil
	case "enter":
		m.mode = filesModeSheet
		m.cellInput.Blur()
		field := m.sheet.Headers[m.sheetCol]
		absRow := m.sheetPage*sheetRowsPerPage + m.sheetRow
		if err := m.sheet.SetCell(absRow, field, parseCell(m.cellInput.Value())); err != nil {
			m.err = err
		}
		return nil
	}
	var cmd tea.Cmd
	m.cellInput, cmd = m.cellInput.Update(msg)
	return cmd
}

// pageRows returns the sheet rows visible on the current local page.
func (m *filesModel) pageRows() []models.SheetRow {
	if m.sheet == nil {
		return nil
	}
	start := m.sheetPage * sheetRowsPerPage
	if start >= len(m.sheet.Rows) {
		return nil
	}
	end := start + sheetRowsPerPage
	if end > len(m.sheet.Rows) {
		end = len(m.sheet.Rows)
	}
	return m.sheet.Rows[start:end]
}

func (m *filesModel) view() string {
	switch m.mode {
	case filesModeSheet, filesModeEditCell:
		return m.sheetView()
	default:
		return m.listView()
	}
}

func (m *filesModel) listView() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("Uploaded Files"))
	b.WriteString("\n")

	switch {
	case m.loading && m.files == nil:
		b.WriteString(m.spin.View() + " Loading files...")
	case m.err != nil:
		b.WriteString(m.styles.Error.Render("Failed to load files: " + m.err.Error()))
	case len(m.files) == 0:
		b.WriteString(m.styles.Muted.Render("No files uploaded yet."))
	default:
		for i, f := range m.files {
			line := f.FileName
			if f.Size > 0 {
				line += m.styles.Muted.Render(fmt.Sprintf("  %d bytes", f.Size))
			}
			if i == m.cursor {
				line = m.styles.SelectedRow.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("enter: open · r: refresh"))
	return b.String()
}

func (m *filesModel) sheetView() string {
	var b strings.Builder
	title := m.sheet.FileID
	if m.sheet.Dirty() {
		title += m.styles.Warning.Render(" (unsaved edits)")
	}
	b.WriteString(m.styles.Header.Render(title))
	b.WriteString("\n")

	colWidth := 14
	var cells []string
	for i, h := range m.sheet.Headers {
		label := pad(h, colWidth)
		if i == m.sheetCol {
			label = m.styles.NavActive.Render(label)
		}
		cells = append(cells, label)
	}
	b.WriteString(strings.Join(cells, " "))
	b.WriteString("\n")

	for i, row := range m.pageRows() {
		absRow := m.sheetPage*sheetRowsPerPage + i
		var line []string
		for _, h := range m.sheet.Headers {
			line = append(line, pad(cellString(row[h]), colWidth))
		}
		rendered := strings.Join(line, " ")
		switch {
		case i == m.sheetRow:
			rendered = m.styles.SelectedRow.Render(rendered)
		case m.sheet.Edited(absRow):
			rendered = m.styles.EditedRow.Render(rendered)
		}
		b.WriteString(rendered)
		b.WriteString("\n")
	}

	if m.mode == filesModeEditCell {
		b.WriteString("\n")
		b.WriteString(m.sheet.Headers[m.sheetCol] + ": " + m.cellInput.View())
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(m.err.Error()))
	}

	totalPages := (len(m.sheet.Rows) + sheetRowsPerPage - 1) / sheetRowsPerPage
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render(fmt.Sprintf(
		"page %d/%d · %d rows · e: edit cell · S: save · n/p: page · esc: back",
		m.sheetPage+1, totalPages, len(m.sheet.Rows))))
	return b.String()
}

func cellString(v models.CellValue) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", t), "0"), ".")
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}

// parseCell mirrors the workbook decoder's coercion for manual edits.
func parseCell(s string) models.CellValue {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
