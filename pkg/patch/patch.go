// Package patch 可选字段更新：区分"未提供"、"显式置空"与"赋值"三种状态，
// 并统一由 Columns 生成 UPDATE 的 SET 子句。
package patch

import "encoding/json"

// Field 单个可选字段
type Field[T any] struct {
	Set   bool // JSON 中出现了该键
	Value *T   // nil 表示显式置空
}

// Value 构造一个已赋值字段
func Value[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null 构造一个显式置空字段
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// Present 字段已提供且非空
func (f Field[T]) Present() bool {
	return f.Set && f.Value != nil
}

// UnmarshalJSON 仅在 JSON 中出现该键时被调用
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// MarshalJSON 未提供与置空都输出 null
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}

// Pair 列名与可选值
type Pair struct {
	Column string
	Value  interface{}
	set    bool
}

// Of 将字段绑定到列名
func Of[T any](column string, f Field[T]) Pair {
	p := Pair{Column: column, set: f.Set}
	if f.Value != nil {
		p.Value = *f.Value
	}
	return p
}

// Columns 汇总已提供的字段；显式置空的字段以 nil 写入
func Columns(pairs ...Pair) map[string]interface{} {
	out := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		if p.set {
			out[p.Column] = p.Value
		}
	}
	return out
}
