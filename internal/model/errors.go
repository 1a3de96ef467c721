package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn 必需列缺失
	ErrMissingColumn = errors.New("missing required column")
	// ErrUnparseableFile 文件无法作为工作簿读取
	ErrUnparseableFile = errors.New("unparseable workbook")
)

// MissingColumnError 缺列错误，携带原始与规范化表头便于排查
type MissingColumnError struct {
	Sheet             string
	Missing           []ColumnRole
	HeaderRow         int
	RawHeaders        []string
	NormalizedHeaders []string
}

func (e *MissingColumnError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, role := range e.Missing {
		names = append(names, fmt.Sprintf("%s (%s)", role, role.Label()))
	}
	return fmt.Sprintf("sheet %q: missing column(s) %s; headers=%q normalized=%q",
		e.Sheet, strings.Join(names, ", "), e.RawHeaders, e.NormalizedHeaders)
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// UnparseableFileError 工作簿读取错误
type UnparseableFileError struct {
	File string
	Err  error
}

func (e *UnparseableFileError) Error() string {
	return fmt.Sprintf("open workbook %q: %v", e.File, e.Err)
}

func (e *UnparseableFileError) Is(target error) bool {
	return target == ErrUnparseableFile
}

func (e *UnparseableFileError) Unwrap() error { return e.Err }
