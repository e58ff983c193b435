package normalize

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/tradebook"
)

// ReadCSV reads a delimited report with a header line into rows.
//
// The delimiter (comma, semicolon or tab) is guessed from the header line. Blank lines are
// ignored and short lines leave the missing columns empty.
func ReadCSV(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	first, _, _ := strings.Cut(string(head), "\n")

	reader := csv.NewReader(br)
	reader.Comma = delimiter(first)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		if blank(record) {
			continue
		}
		row := make(Row, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func delimiter(header string) rune {
	best, count := ',', strings.Count(header, ",")
	for _, d := range []rune{';', '\t'} {
		if c := strings.Count(header, string(d)); c > count {
			best, count = d, c
		}
	}
	return best
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// LoadFile reads and normalizes a CSV report.
func LoadFile(path string, opts ...Option) (tradebook.Records, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return tradebook.Records{}, Report{}, tradebook.WrapError("load "+path, err)
	}
	defer f.Close()
	rows, err := ReadCSV(f)
	if err != nil {
		return tradebook.Records{}, Report{}, tradebook.WrapError("load "+path, err)
	}
	records, report := Normalize(rows, opts...)
	return records, report, nil
}

// LoadFiles loads several reports, typically a trades file and a fees file, into a single
// set of records.
func LoadFiles(paths []string, opts ...Option) (tradebook.Records, Report, error) {
	var records tradebook.Records
	var report Report
	for _, p := range paths {
		r, rep, err := LoadFile(p, opts...)
		if err != nil {
			return tradebook.Records{}, Report{}, err
		}
		records.Append(r)
		report.Merge(rep)
	}
	return records, report, nil
}
