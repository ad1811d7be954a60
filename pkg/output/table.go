package output

import (
	"fmt"
	"io"
	"reflect"
	"text/tabwriter"
)

type TableFormatter struct {
}

func (f *TableFormatter) Kind() Format {
	return TableFormat
}

// TableFormatterOptions selects which fields become columns.
type TableFormatterOptions struct {
	Columns []Column
}

// Column maps a struct field (by name) to a column heading.
type Column struct {
	Heading string
	Field   string
}

// Format writes a slice of structs as an aligned table. obj must be a slice;
// each column's Field is looked up by reflection on the element type.
func (f *TableFormatter) Format(obj interface{}, writer io.Writer, opts interface{}) error {
	options, ok := opts.(TableFormatterOptions)
	if !ok || len(options.Columns) == 0 {
		return fmt.Errorf("table format requires column options")
	}

	v := reflect.ValueOf(obj)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("table format requires a slice, got %T", obj)
	}

	tw := tabwriter.NewWriter(writer, 0, 8, 2, ' ', 0)

	for i, col := range options.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col.Heading)
	}
	fmt.Fprintln(tw)

	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}

		for j, col := range options.Columns {
			if j > 0 {
				fmt.Fprint(tw, "\t")
			}

			field := elem.FieldByName(col.Field)
			if !field.IsValid() {
				return fmt.Errorf("no field %s on %s", col.Field, elem.Type())
			}
			fmt.Fprintf(tw, "%v", field.Interface())
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

var _ Formatter = (*TableFormatter)(nil)
