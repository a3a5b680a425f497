package repository

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Descriptor maps one entity type onto its table: column list, code and name
// columns for quick search, and the scan/args functions that move values
// between rows and the entity struct.
//
// Columns lists every column except id, in the order Args produces values.
// The audit and is_deleted columns belong in Columns so that insert and
// update statements carry them.
type Descriptor[T any] struct {
	ObjectType   string
	Table        string
	Columns      []string
	CodeColumn   string
	NameColumn   string
	DefaultOrder string

	Scan func(row pgx.Row) (T, error)
	Args func(e T) []any
}

func (d Descriptor[T]) selectList() string {
	return "id, " + strings.Join(d.Columns, ", ")
}

func (d Descriptor[T]) insertStatement() string {
	placeholders := make([]string, len(d.Columns))
	for i := range d.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return "INSERT INTO " + d.Table +
		" (" + strings.Join(d.Columns, ", ") + ") VALUES (" +
		strings.Join(placeholders, ", ") + ") RETURNING id"
}

func (d Descriptor[T]) updateStatement() string {
	assignments := make([]string, len(d.Columns))
	for i, column := range d.Columns {
		assignments[i] = fmt.Sprintf("%s = $%d", column, i+1)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		d.Table, strings.Join(assignments, ", "), len(d.Columns)+1)
}

// NullableId maps the zero "no reference" identifier onto SQL NULL, for
// optional foreign-key columns.
func NullableId(id int) any {
	if id == 0 {
		return nil
	}
	return id
}

func (d Descriptor[T]) codeColumn() string {
	if d.CodeColumn != "" {
		return d.CodeColumn
	}
	return "object_code"
}

func (d Descriptor[T]) nameColumn() string {
	if d.NameColumn != "" {
		return d.NameColumn
	}
	return "object_name"
}

func (d Descriptor[T]) defaultOrder() string {
	if d.DefaultOrder != "" {
		return d.DefaultOrder
	}
	return d.nameColumn()
}
