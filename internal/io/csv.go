// Package io implements the §6 CSV ingestion/output adapters: parsing an
// EDB relation's facts from a delimited file (with an optional input-tag
// column) and writing an IDB/EDB relation's current contents back out in
// the same shape, with the canonical value formatting §6 specifies.
package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ramonfmir/scallop/internal/ast"
	scallopErrors "github.com/ramonfmir/scallop/internal/errors"
	"github.com/ramonfmir/scallop/internal/provenance"
	"github.com/ramonfmir/scallop/internal/runtime/dynamic"
	"github.com/ramonfmir/scallop/internal/value"
)

// LoadCSV reads rel's facts from r according to opts (§6 CSV ingestion):
// delimiter, optional header row, optional leading probability column.
// Each decoded row is tagged via prov.TagOfInput using the parsed input
// tag (ast.InputTagNone when has_probability is false). Row arity (minus
// the probability column, if any) must equal rel's declared flattened
// arity; otherwise the row is reported via errors.NewArityMismatch and
// loading stops.
func LoadCSV(r io.Reader, rel *ast.RelationDecl, opts ast.CSVOptions, prov provenance.Context) ([]dynamic.Row, error) {
	reader := csv.NewReader(r)
	reader.Comma = rune(opts.Delimiter)
	if reader.Comma == 0 {
		reader.Comma = ','
	}
	reader.FieldsPerRecord = -1

	leafTypes := rel.ArgTypes.Flatten()

	records, err := reader.ReadAll()
	if err != nil {
		return nil, scallopErrors.NewIOError(rel.Name, "failed to read CSV", err)
	}
	if opts.HasHeader && len(records) > 0 {
		records = records[1:]
	}

	rows := make([]dynamic.Row, 0, len(records))
	for _, record := range records {
		tagKind := ast.InputTagNone
		disjID := 0
		prob := 1.0
		fields := record
		if opts.HasProbability {
			if len(record) == 0 {
				return nil, scallopErrors.NewArityMismatch(rel.Name, len(leafTypes)+1, 0)
			}
			tagKind, disjID, prob, err = parseInputTag(record[0])
			if err != nil {
				return nil, scallopErrors.NewIOError(rel.Name, "failed to parse input tag column", err)
			}
			fields = record[1:]
		}
		if len(fields) != len(leafTypes) {
			return nil, scallopErrors.NewArityMismatch(rel.Name, len(leafTypes), len(fields))
		}
		cols := make([]value.Value, len(fields))
		for i, field := range fields {
			v, err := ParseValue(field, leafTypes[i])
			if err != nil {
				return nil, scallopErrors.NewIOError(rel.Name, fmt.Sprintf("failed to parse column %d", i), err)
			}
			cols[i] = v
		}
		rows = append(rows, dynamic.Row{Cols: cols, Tag: prov.TagOfInput(tagKind, disjID, prob)})
	}
	return rows, nil
}

// parseInputTag decodes the probability column's dynamic input tag (§6
// "Input tags (dynamic)"): empty means None, "*" requests a fresh
// probabilistic variable, "#<id>" an exclusive-disjunction tag, a bare
// float a plain probability, and "#<id>::<f>" an exclusive-probability
// tag combining both.
func parseInputTag(field string) (ast.InputTagKind, int, float64, error) {
	field = strings.TrimSpace(field)
	switch {
	case field == "":
		return ast.InputTagNone, 0, 0, nil
	case field == "*":
		return ast.InputTagNewVariable, 0, 0, nil
	case strings.HasPrefix(field, "#"):
		rest := field[1:]
		if idx := strings.Index(rest, "::"); idx >= 0 {
			disjID, err := strconv.Atoi(rest[:idx])
			if err != nil {
				return 0, 0, 0, fmt.Errorf("invalid disjunction id in %q: %w", field, err)
			}
			prob, err := strconv.ParseFloat(rest[idx+2:], 64)
			if err != nil {
				return 0, 0, 0, fmt.Errorf("invalid probability in %q: %w", field, err)
			}
			if prob < 0 || prob > 1 {
				return 0, 0, 0, fmt.Errorf("probability %v out of [0,1] in %q", prob, field)
			}
			return ast.InputTagExclusiveProbability, disjID, prob, nil
		}
		disjID, err := strconv.Atoi(rest)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid disjunction id in %q: %w", field, err)
		}
		return ast.InputTagExclusive, disjID, 0, nil
	default:
		prob, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid probability %q: %w", field, err)
		}
		if prob < 0 || prob > 1 {
			return 0, 0, 0, fmt.Errorf("probability %v out of [0,1]", prob)
		}
		return ast.InputTagProbability, 0, prob, nil
	}
}

// ParseValue parses one CSV field as t's canonical textual form: integers
// decimal, floats via strconv's standard parser, bool as true/false,
// char as a single rune, string/symbol verbatim (quoting is handled by the
// CSV reader itself).
func ParseValue(field string, t value.Type) (value.Value, error) {
	switch t {
	case value.TypeI8:
		n, err := strconv.ParseInt(field, 10, 8)
		return value.I8(int8(n)), err
	case value.TypeI16:
		n, err := strconv.ParseInt(field, 10, 16)
		return value.I16(int16(n)), err
	case value.TypeI32:
		n, err := strconv.ParseInt(field, 10, 32)
		return value.I32(int32(n)), err
	case value.TypeI64, value.TypeI128:
		n, err := strconv.ParseInt(field, 10, 64)
		if t == value.TypeI128 {
			return value.I128(n), err
		}
		return value.I64(n), err
	case value.TypeU8:
		n, err := strconv.ParseUint(field, 10, 8)
		return value.U8(uint8(n)), err
	case value.TypeU16:
		n, err := strconv.ParseUint(field, 10, 16)
		return value.U16(uint16(n)), err
	case value.TypeU32:
		n, err := strconv.ParseUint(field, 10, 32)
		return value.U32(uint32(n)), err
	case value.TypeU64, value.TypeU128:
		n, err := strconv.ParseUint(field, 10, 64)
		if t == value.TypeU128 {
			return value.U128(n), err
		}
		return value.U64(n), err
	case value.TypeF32:
		f, err := strconv.ParseFloat(field, 32)
		return value.F32(float32(f)), err
	case value.TypeF64:
		f, err := strconv.ParseFloat(field, 64)
		return value.F64(f), err
	case value.TypeBool:
		b, err := strconv.ParseBool(field)
		return value.Bool(b), err
	case value.TypeChar:
		runes := []rune(field)
		if len(runes) != 1 {
			return value.Value{}, fmt.Errorf("expected a single character, got %q", field)
		}
		return value.Char(runes[0]), nil
	case value.TypeString:
		return value.String(field), nil
	case value.TypeSymbol:
		return value.Symbol(field), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported column type %v", t)
	}
}

// FormatValue renders v with the canonical formatter §6 describes:
// integers decimal, floats with their standard short representation,
// booleans as true/false, strings/symbols verbatim. Quoting a string that
// contains the output delimiter is WriteCSV's job (via encoding/csv's own
// writer, which already quotes exactly under that condition) rather than
// this function's -- doing it here too would double-quote once the value
// reaches csv.Writer.Write.
func FormatValue(v value.Value) string {
	switch v.Type() {
	case value.TypeString, value.TypeSymbol:
		return v.AsString()
	default:
		return v.String()
	}
}

// WriteCSV writes rows (already in Default-output relation order) to w
// using delimiter, one tuple per row, with FormatValue's canonical
// rendering per column (§6 CSV output). encoding/csv.Writer quotes a
// field itself exactly when it contains the writer's delimiter, a quote
// character, or a newline, which is precisely §6's "strings unquoted
// unless they contain the delimiter -- in which case quoted" rule.
func WriteCSV(w io.Writer, rows []dynamic.Row, delimiter byte) error {
	writer := csv.NewWriter(w)
	if delimiter != 0 {
		writer.Comma = rune(delimiter)
	}
	for _, row := range rows {
		record := make([]string, len(row.Cols))
		for i, c := range row.Cols {
			record[i] = FormatValue(c)
		}
		if err := writer.Write(record); err != nil {
			return scallopErrors.NewIOError("", "failed to write CSV row", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
