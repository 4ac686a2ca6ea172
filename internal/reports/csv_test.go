package reports

import (
	"bytes"
	"testing"

	"golang.org/x/text/encoding/japanese"
)

func TestEncodeCSVcp932(t *testing.T) {
	records := [][]string{
		{"振替ID", "商品名"},
		{"1", "綿ブロード 無地"},
		{"2", `備考に"引用"あり`},
	}
	got, err := encodeCSVcp932(records)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// UTF-8 のままになっていないこと
	if bytes.Contains(got, []byte("振替ID")) {
		t.Error("output still contains UTF-8 bytes")
	}

	want, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte("振替ID"))
	if err != nil {
		t.Fatalf("reference encode: %v", err)
	}
	if !bytes.Contains(got, want) {
		t.Error("output does not contain Shift_JIS encoded header")
	}

	// csv.Writer がダブルクォートをエスケープしているはず
	sjisQuoted, _ := japanese.ShiftJIS.NewEncoder().Bytes([]byte(`"備考に""引用""あり"`))
	if !bytes.Contains(got, sjisQuoted) {
		t.Error("quoted field not escaped as expected")
	}
}
