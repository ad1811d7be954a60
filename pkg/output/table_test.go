package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type tableRow struct {
	Name  string
	Count int
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer

	f := &TableFormatter{}
	err := f.Format([]tableRow{
		{Name: "alpha", Count: 1},
		{Name: "beta", Count: 22},
	}, &buf, TableFormatterOptions{
		Columns: []Column{
			{Heading: "NAME", Field: "Name"},
			{Heading: "COUNT", Field: "Count"},
		},
	})
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	require.Contains(t, string(lines[0]), "NAME")
	require.Contains(t, string(lines[1]), "alpha")
	require.Contains(t, string(lines[2]), "22")
}

func TestTableFormatterErrors(t *testing.T) {
	f := &TableFormatter{}
	var buf bytes.Buffer

	// Missing options.
	require.Error(t, f.Format([]tableRow{}, &buf, nil))

	// Not a slice.
	require.Error(t, f.Format(tableRow{}, &buf, TableFormatterOptions{
		Columns: []Column{{Heading: "NAME", Field: "Name"}},
	}))

	// Unknown field.
	require.Error(t, f.Format([]tableRow{{}}, &buf, TableFormatterOptions{
		Columns: []Column{{Heading: "NOPE", Field: "Nope"}},
	}))
}

func TestNewFormatter(t *testing.T) {
	for _, format := range []string{"json", "table", "none"} {
		f, err := NewFormatter(format)
		require.NoError(t, err)
		require.Equal(t, Format(format), f.Kind())
	}

	_, err := NewFormatter("yaml")
	require.Error(t, err)
}

func TestJsonFormatter(t *testing.T) {
	var buf bytes.Buffer

	f := &JsonFormatter{}
	require.NoError(t, f.Format(map[string]string{"key": "value"}, &buf, nil))
	require.JSONEq(t, `{"key":"value"}`, buf.String())
}
