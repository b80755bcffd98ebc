package diaglog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
)

// XLSXSink appends rows to a sheet of a local workbook, creating the workbook
// and the sheet on first use.
type XLSXSink struct {
	mu    sync.Mutex
	path  string
	sheet string
}

func NewXLSXSink(path, sheet string) *XLSXSink {
	if sheet == "" {
		sheet = "DebugLog"
	}
	return &XLSXSink{path: path, sheet: sheet}
}

func (s *XLSXSink) Append(_ context.Context, at time.Time, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.sheet, err)
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	row := []interface{}{at.Format(time.RFC3339), message}
	if err := f.SetSheetRow(s.sheet, cell, &row); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return f.SaveAs(s.path)
}

func (s *XLSXSink) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return nil, err
		}
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), s.sheet); err != nil {
			f.Close()
			return nil, err
		}
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	idx, err := f.GetSheetIndex(s.sheet)
	if err != nil {
		f.Close()
		return nil, err
	}
	if idx == -1 {
		if _, err := f.NewSheet(s.sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", s.sheet, err)
		}
	}
	return f, nil
}
