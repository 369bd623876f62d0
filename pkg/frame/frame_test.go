package frame_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pingcap-inc/file2bq/pkg/errno"
	"github.com/pingcap-inc/file2bq/pkg/frame"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	data := "id,customer name,amount,paid,note\n" +
		"1,alice,10.5,true,\n" +
		"2,bob,7,false,first order\n" +
		",,,,\n" +
		"3,carol,,TRUE\n"
	f, err := frame.ReadCSV(strings.NewReader(data))
	require.NoError(t, err)

	require.Equal(t, []frame.Column{
		{Name: "id", Kind: frame.KindInteger},
		{Name: "customer_name", Kind: frame.KindString},
		{Name: "amount", Kind: frame.KindFloat},
		{Name: "paid", Kind: frame.KindBoolean},
		{Name: "note", Kind: frame.KindString},
	}, f.Columns)
	require.Equal(t, 3, f.NumRows())
	require.Equal(t, []interface{}{int64(1), "alice", 10.5, true, nil}, f.Rows[0])
	require.Equal(t, []interface{}{int64(2), "bob", float64(7), false, "first order"}, f.Rows[1])
	require.Equal(t, []interface{}{int64(3), "carol", nil, true, nil}, f.Rows[2])
}

func TestReadCSVKeepsBinaryColumnsNumeric(t *testing.T) {
	f, err := frame.ReadCSV(strings.NewReader("flag,code\n0,007\n1,abc\n"))
	require.NoError(t, err)
	require.Equal(t, frame.KindInteger, f.Columns[0].Kind)
	require.Equal(t, frame.KindString, f.Columns[1].Kind)
	require.Equal(t, "007", f.Rows[0][1])
}

func TestReadCSVKeepsDigitSeparatorsAsText(t *testing.T) {
	f, err := frame.ReadCSV(strings.NewReader("period,count\n2023_01,1_000\n2024_02,2_000\n"))
	require.NoError(t, err)
	require.Equal(t, frame.KindString, f.Columns[0].Kind)
	require.Equal(t, frame.KindString, f.Columns[1].Kind)
	require.Equal(t, []interface{}{"2023_01", "1_000"}, f.Rows[0])
	require.Equal(t, []interface{}{"2024_02", "2_000"}, f.Rows[1])
}

func TestReadCSVNaNIsMissing(t *testing.T) {
	f, err := frame.ReadCSV(strings.NewReader("score,label\n1.5,a\nNaN,nan\n2,b\n"))
	require.NoError(t, err)
	require.Equal(t, frame.KindFloat, f.Columns[0].Kind)
	require.Equal(t, frame.KindString, f.Columns[1].Kind)
	require.Equal(t, []interface{}{nil, nil}, f.Rows[1])

	var buf bytes.Buffer
	require.NoError(t, f.WriteNDJSON(&buf))
	require.Equal(t, "{\"score\":1.5,\"label\":\"a\"}\n{}\n{\"score\":2,\"label\":\"b\"}\n", buf.String())
}

func TestReadCSVKeepsInfinityAsText(t *testing.T) {
	f, err := frame.ReadCSV(strings.NewReader("limit,mixed\nInf,1.5\nInfinity,-inf\n"))
	require.NoError(t, err)
	require.Equal(t, frame.KindString, f.Columns[0].Kind)
	require.Equal(t, frame.KindString, f.Columns[1].Kind)
	require.Equal(t, []interface{}{"Infinity", "-inf"}, f.Rows[1])

	var buf bytes.Buffer
	require.NoError(t, f.WriteNDJSON(&buf))
	require.Contains(t, buf.String(), `"limit":"Inf"`)
}

func TestNewErrors(t *testing.T) {
	_, err := frame.New(nil, nil)
	require.True(t, errno.IsInvalidFrame(err))

	_, err = frame.New([]string{"id", " id "}, nil)
	require.True(t, errno.IsInvalidFrame(err))

	_, err = frame.New([]string{"id", ""}, nil)
	require.True(t, errno.IsInvalidFrame(err))

	_, err = frame.New([]string{"id"}, [][]string{{"1", "2"}})
	require.True(t, errno.IsInvalidFrame(err))

	_, err = frame.ReadCSV(strings.NewReader(""))
	require.True(t, errno.IsInvalidFrame(err))
}

func TestWriteNDJSON(t *testing.T) {
	f, err := frame.New([]string{"name", "id", "score"}, [][]string{
		{"a \"quoted\" name", "1", "2.5"},
		{"b", "2", ""},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.WriteNDJSON(&buf))
	require.Equal(t,
		`{"name":"a \"quoted\" name","id":1,"score":2.5}`+"\n"+
			`{"name":"b","id":2}`+"\n",
		buf.String())
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.xlsx")
	book := excelize.NewFile()
	rows := [][]interface{}{
		{"id", "name"},
		{1, "alice"},
		{2, "bob"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, book.SaveAs(path))
	require.NoError(t, book.Close())

	f, err := frame.ReadFile(path, frame.FormatAuto, "")
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name"}, f.ColumnNames())
	require.Equal(t, frame.KindInteger, f.Columns[0].Kind)
	require.Equal(t, []interface{}{int64(2), "bob"}, f.Rows[1])

	_, err = frame.ReadXLSX(path, "Missing")
	require.True(t, errno.IsInvalidFrame(err))
}

func TestResolveFormat(t *testing.T) {
	format, err := frame.ResolveFormat("data/report.CSV", frame.FormatAuto)
	require.NoError(t, err)
	require.Equal(t, frame.FormatCSV, format)

	format, err = frame.ResolveFormat("data/report.txt", frame.FormatXLSX)
	require.NoError(t, err)
	require.Equal(t, frame.FormatXLSX, format)

	_, err = frame.ResolveFormat("data/report.txt", frame.FormatAuto)
	require.True(t, errno.IsInvalidFrame(err))

	_, err = frame.ReadFile("data/report.ndjson", frame.FormatAuto, "")
	require.True(t, errno.IsInvalidFrame(err))
}
