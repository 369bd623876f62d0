package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pingcap-inc/file2bq/pkg/errno"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type Format int

const (
	FormatAuto Format = iota
	FormatCSV
	FormatXLSX
	FormatJSON
)

var FormatIds = map[Format][]string{
	FormatAuto: {"auto"},
	FormatCSV:  {"csv"},
	FormatXLSX: {"xlsx"},
	FormatJSON: {"json", "ndjson"},
}

// ResolveFormat picks the format of path from its extension when format is
// FormatAuto.
func ResolveFormat(path string, format Format) (Format, error) {
	if format != FormatAuto {
		return format, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json", ".ndjson", ".jsonl":
		return FormatJSON, nil
	}
	return FormatAuto, errno.ErrInvalidFrame.GenWithStackByArgs(fmt.Sprintf("unsupported file format: %s", path))
}

// ReadFile parses a local file into a frame. sheet selects the worksheet of
// an XLSX file; the first sheet is used when it is empty.
func ReadFile(path string, format Format, sheet string) (*Frame, error) {
	format, err := ResolveFormat(path, format)
	if err != nil {
		return nil, err
	}
	var f *Frame
	switch format {
	case FormatCSV:
		log.Info("reading CSV file", zap.String("path", path))
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.Annotatef(err, "failed to open %s", path)
		}
		defer file.Close()
		f, err = ReadCSV(file)
		if err != nil {
			return nil, errors.Trace(err)
		}
	case FormatXLSX:
		log.Info("reading XLSX file", zap.String("path", path), zap.String("sheet", sheet))
		f, err = ReadXLSX(path, sheet)
		if err != nil {
			return nil, errors.Trace(err)
		}
	default:
		return nil, errno.ErrInvalidFrame.GenWithStackByArgs(
			fmt.Sprintf("%s files can only be loaded from gs:// sources", FormatIds[format][0]))
	}
	log.Info("file parsed", zap.String("path", path),
		zap.Strings("columns", f.ColumnNames()), zap.Int("rows", f.NumRows()))
	return f, nil
}

// ReadCSV parses comma separated text whose first record is the header.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errno.ErrInvalidFrame.GenWithStackByArgs(err.Error())
	}
	if len(records) == 0 {
		return nil, errno.ErrInvalidFrame.GenWithStackByArgs("file is empty")
	}
	return New(records[0], records[1:])
}

// ReadXLSX parses one worksheet of a spreadsheet whose first row is the header.
func ReadXLSX(path, sheet string) (*Frame, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errno.ErrInvalidFrame.GenWithStackByArgs(err.Error())
	}
	defer file.Close()

	if sheet == "" {
		sheet = file.GetSheetName(0)
	}
	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, errno.ErrInvalidFrame.GenWithStackByArgs(fmt.Sprintf("sheet %q: %v", sheet, err))
	}
	if len(rows) == 0 {
		return nil, errno.ErrInvalidFrame.GenWithStackByArgs(fmt.Sprintf("sheet %q is empty", sheet))
	}
	return New(rows[0], rows[1:])
}
