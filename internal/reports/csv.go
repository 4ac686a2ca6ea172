package reports

import (
	"bytes"
	"encoding/csv"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// encodeCSVcp932 は Excel(日本語版) でそのまま開ける CSV を作る。
// UTF-8 だと文字化けするので Shift_JIS（Windowsの「ANSI（CP932）」相当）で書く。
func encodeCSVcp932(records [][]string) ([]byte, error) {
	var b bytes.Buffer
	enc := japanese.ShiftJIS.NewEncoder()
	w := csv.NewWriter(transform.NewWriter(&b, enc))

	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
