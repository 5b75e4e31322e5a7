// reader.go
package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
)

// 错误分类：路径不可读与内容不可解析分开，方便上层用errors.Is区分
var (
	ErrFileAccess = errors.New("file access error")
	ErrParse      = errors.New("parse error")
)

// 列名归一化替换规则：小写化之后，空格转下划线，符号转文本token
var nameReplacer = strings.NewReplacer(
	" ", "_",
	"+", "plus",
	"%", "percent",
)

// Load 根据扩展名读取csv或xlsx文件，返回列名已归一化的DataFrame
func Load(path, sheetName string) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSXToDataFrame(path, sheetName)
	default:
		return ReadCSVToDataFrame(path)
	}
}

// ReadCSVToDataFrame 读取csv文件为DataFrame
func ReadCSVToDataFrame(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: open %s: %v", ErrFileAccess, path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV 从reader读取csv数据为DataFrame，列名归一化
func ReadCSV(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{"", "NA", "NaN", "null"}),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %v", ErrParse, df.Err)
	}

	return NormalizeColumns(df)
}

// ReadCSVBytes 从内存数据(如邮件附件)读取csv
func ReadCSVBytes(data []byte) (dataframe.DataFrame, error) {
	return ReadCSV(bytes.NewReader(data))
}

// ReadXLSXToDataFrame 读取xlsx文件指定工作表为DataFrame
func ReadXLSXToDataFrame(path, sheetName string) (dataframe.DataFrame, error) {
	if _, err := os.Stat(path); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: stat %s: %v", ErrFileAccess, path, err)
	}

	xlFile, err := xlsx.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: open xlsx %s: %v", ErrParse, path, err)
	}

	return sheetToDataFrame(xlFile, sheetName)
}

// ReadXLSXBytes 从内存数据(如邮件附件)读取xlsx
func ReadXLSXBytes(data []byte, sheetName string) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: open xlsx: %v", ErrParse, err)
	}
	return sheetToDataFrame(xlFile, sheetName)
}

func sheetToDataFrame(xlFile *xlsx.File, sheetName string) (dataframe.DataFrame, error) {
	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: excel文件中没有工作表", ErrParse)
	}

	sheet, ok := xlFile.Sheet[sheetName]
	if !ok {
		// 未指定或不存在时退回第一个工作表
		if sheetName != "" {
			return dataframe.DataFrame{}, fmt.Errorf("%w: 工作表 %s 不存在", ErrParse, sheetName)
		}
		sheet = xlFile.Sheets[0]
	}

	df, err := convertSheetToDataFrame(sheet)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return NormalizeColumns(df)
}

// convertSheetToDataFrame 将xlsx.Sheet转换为dataframe.DataFrame
// 第一行为标题行，其余为数据行
func convertSheetToDataFrame(sheet *xlsx.Sheet) (dataframe.DataFrame, error) {
	if len(sheet.Rows) < 2 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: 工作表缺少标题行或数据行", ErrParse)
	}

	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, cell.String())
	}
	if len(headers) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: 标题行为空", ErrParse)
	}

	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, len(sheet.Rows)-1)
	}

	for _, row := range sheet.Rows[1:] {
		for i := range headers {
			if i < len(row.Cells) {
				columns[i] = append(columns[i], row.Cells[i].String())
			} else {
				columns[i] = append(columns[i], "")
			}
		}
	}

	seriesList := make([]series.Series, len(headers))
	for i, colName := range headers {
		seriesList[i] = series.New(columns[i], series.String, colName)
	}

	df := dataframe.New(seriesList...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %v", ErrParse, df.Err)
	}
	return df, nil
}

// NormalizeColumns 归一化列标识：去首尾空白、小写、空格转下划线、
// "+"转plus、"%"转percent
func NormalizeColumns(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	names := df.Names()
	normalized := make([]string, len(names))
	for i, n := range names {
		normalized[i] = NormalizeName(n)
	}

	if err := df.SetNames(normalized...); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: 列名归一化失败: %v", ErrParse, err)
	}
	return df, nil
}

// NormalizeName 归一化单个列名
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	return nameReplacer.Replace(n)
}
