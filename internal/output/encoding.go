// Package output renders query responses for the command line: byte-stable
// JSON and the json|human format switch.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format is a CLI output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatHuman Format = "human"
)

// ParseFormat accepts json or human, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatHuman:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q (want json or human)", s)
}

// DeterministicEncode renders v as indented JSON whose bytes depend only on
// its content: object keys are sorted and non-integral numbers are rounded
// to six decimal places. Struct tags, omitempty and empty slices behave as
// they do with encoding/json.
func DeterministicEncode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalize(generic)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteJSON writes the deterministic encoding of v followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	data, err := DeterministicEncode(v)
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	case json.Number:
		s := val.String()
		if !strings.ContainsAny(s, ".eE") {
			return val
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return val
		}
		return json.Number(FormatFloat(f))
	default:
		return v
	}
}
