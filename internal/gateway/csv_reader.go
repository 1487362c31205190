package gateway

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"timesheet-reconciliation/internal/domain"
)

// readCSV reads a CSV export into a RawTable. The delimiter is taken from the
// header line: exports from Dutch locales use ';' instead of ','.
func readCSV(path string) (domain.RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	buf := bufio.NewReader(file)
	head, err := buf.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return domain.RawTable{}, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	reader := csv.NewReader(buf)
	reader.Comma = sniffDelimiter(head)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	var lines []int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("error reading record from %s: %w", path, err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, record)
		lines = append(lines, line)
	}
	return buildTable(path, rows, lines), nil
}

func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}
