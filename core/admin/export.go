package admin

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export writes the ListDisplay columns of objs as an XLSX workbook.
func (ma *ModelAdmin) Export(w io.Writer, objs []interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := ma.VerboseNamePlural
	if sheet == "" {
		sheet = ma.Name
	}
	if len(sheet) > 31 { // excel limit
		sheet = sheet[:31]
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	for col, field := range ma.ListDisplay {
		if err := setCell(f, sheet, col+1, 1, ma.Label(field)); err != nil {
			return err
		}
	}
	for i, obj := range objs {
		for col, val := range ma.Row(obj) {
			if err := setCell(f, sheet, col+1, i+2, exportValue(val)); err != nil {
				return err
			}
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}

func setCell(f *excelize.File, sheet string, col, row int, val interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return errors.Wrap(err, "getting cell name")
	}
	return errors.Wrapf(f.SetCellValue(sheet, cell, val), "setting cell %s", cell)
}

// exportValue converts the values excelize does not know how to write.
func exportValue(val interface{}) interface{} {
	switch v := val.(type) {
	case nil, string, bool, int, int64, float64, time.Time:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return v
	}
}
