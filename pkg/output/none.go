package output

import (
	"fmt"
	"io"
)

// NoneFormatter prints nothing for structured results. Progress messages
// still reach the user through the command's ordinary writer.
type NoneFormatter struct {
}

func (f *NoneFormatter) Kind() Format {
	return NoneFormat
}

func (f *NoneFormatter) Format(obj interface{}, writer io.Writer, _ interface{}) error {
	// A bare string still prints; "none" suppresses structure, not text.
	if s, ok := obj.(string); ok {
		_, err := fmt.Fprintln(writer, s)
		return err
	}

	return nil
}

var _ Formatter = (*NoneFormatter)(nil)
