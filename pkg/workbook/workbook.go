// Package workbook 基于 excelize 的工作簿读写。
//
// 读取时以首行为表头，按列名（区分大小写）取值，返回带原始行号的行数据；
// 全空行会被跳过。
package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnreadable  = errors.New("无法解析Excel文件")
	ErrTooManyRows = errors.New("工作表行数超过上限")
)

// Source 按名称取工作表
type Source interface {
	Sheet(name string) (*Sheet, bool)
}

// Row 一行数据：列名 -> 单元格文本
type Row struct {
	Number int // Excel 中的行号（表头为第 1 行）
	cells  map[string]string
}

// NewRow 构造行数据，测试与模板生成使用
func NewRow(number int, cells map[string]string) Row {
	return Row{Number: number, cells: cells}
}

// Get 取单元格文本（已去除首尾空白），列不存在时返回空串
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.cells[column])
}

// First 依次尝试多个列名，返回第一个非空值
func (r Row) First(columns ...string) string {
	for _, c := range columns {
		if v := r.Get(c); v != "" {
			return v
		}
	}
	return ""
}

// Sheet 一个工作表
type Sheet struct {
	Name   string
	Header []string
	Rows   []Row
}

// Book 已读取到内存的工作簿
type Book struct {
	sheets map[string]*Sheet
	order  []string
}

// New 由内存数据构造工作簿
func New(sheets ...*Sheet) *Book {
	b := &Book{sheets: make(map[string]*Sheet, len(sheets))}
	for _, s := range sheets {
		b.sheets[s.Name] = s
		b.order = append(b.order, s.Name)
	}
	return b
}

// NewSheet 由表头与二维文本构造工作表，行号从 2 开始
func NewSheet(name string, header []string, records ...[]string) *Sheet {
	s := &Sheet{Name: name, Header: header}
	for i, rec := range records {
		if row, ok := toRow(header, rec, i+2); ok {
			s.Rows = append(s.Rows, row)
		}
	}
	return s
}

// Sheet 实现 Source
func (b *Book) Sheet(name string) (*Sheet, bool) {
	s, ok := b.sheets[name]
	return s, ok
}

// Names 工作表名称，保持文件中的顺序
func (b *Book) Names() []string {
	return append([]string(nil), b.order...)
}

// Open 读取整个工作簿；maxRows > 0 时限制每个工作表的数据行数
func Open(r io.Reader, maxRows int) (*Book, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	b := &Book{sheets: make(map[string]*Sheet)}
	for _, name := range f.GetSheetList() {
		records, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("读取工作表 %s 失败: %w", name, err)
		}
		s := &Sheet{Name: name}
		if len(records) > 0 {
			s.Header = trimAll(records[0])
			for i := 1; i < len(records); i++ {
				if row, ok := toRow(s.Header, records[i], i+1); ok {
					s.Rows = append(s.Rows, row)
				}
			}
		}
		if maxRows > 0 && len(s.Rows) > maxRows {
			return nil, fmt.Errorf("%w: %s 共 %d 行，上限 %d", ErrTooManyRows, name, len(s.Rows), maxRows)
		}
		b.sheets[name] = s
		b.order = append(b.order, name)
	}
	return b, nil
}

// Write 将工作表按顺序写成 xlsx；空工作表仍输出表头
func Write(sheets ...*Sheet) (*bytes.Buffer, error) {
	if len(sheets) == 0 {
		return nil, errors.New("至少需要一个工作表")
	}
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(s.Name, "A1", toInterfaces(s.Header)); err != nil {
			return nil, err
		}
		for j, row := range s.Rows {
			values := make([]string, len(s.Header))
			for k, h := range s.Header {
				values[k] = row.cells[h]
			}
			cellName, _ := excelize.CoordinatesToCellName(1, j+2)
			if err := f.SetSheetRow(s.Name, cellName, toInterfaces(values)); err != nil {
				return nil, err
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func toRow(header, record []string, number int) (Row, bool) {
	cells := make(map[string]string, len(header))
	blank := true
	for i, h := range header {
		if h == "" || i >= len(record) {
			continue
		}
		v := record[i]
		if strings.TrimSpace(v) != "" {
			blank = false
		}
		cells[h] = v
	}
	if blank {
		return Row{}, false
	}
	return Row{Number: number, cells: cells}, true
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func toInterfaces(values []string) *[]interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &out
}
