package utils

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// CSVAnalysisResult describes the detected layout of a CSV file
type CSVAnalysisResult struct {
	Delimiter           rune    `json:"delimiter"`
	Encoding            string  `json:"encoding"`
	Columns             int     `json:"columns"`
	SampleRows          int     `json:"sample_rows"`
	DelimiterConfidence float64 `json:"delimiter_confidence"` // 0.0 to 1.3
}

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// AnalyzeCSV inspects the first lines of a CSV file to pick a delimiter
func AnalyzeCSV(reader io.Reader) (*CSVAnalysisResult, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var lines []string
	maxLines := 10

	for len(lines) < maxLines && scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	delimiter, confidence := detectDelimiter(lines)

	return &CSVAnalysisResult{
		Delimiter:           delimiter,
		Encoding:            "utf-8",
		Columns:             countColumns(lines[0], delimiter),
		SampleRows:          len(lines),
		DelimiterConfidence: confidence,
	}, nil
}

// detectDelimiter scores each candidate delimiter and keeps the best one.
// Ties keep the earlier candidate, so plain comma files stay comma.
func detectDelimiter(lines []string) (rune, float64) {
	best, bestScore := ',', 0.0
	for _, d := range candidateDelimiters {
		if score := analyzeDelimiterConsistency(lines, d); score > bestScore {
			best, bestScore = d, score
		}
	}
	return best, bestScore
}

// analyzeDelimiterConsistency rewards delimiters that split every sampled
// line into roughly the same number of columns
func analyzeDelimiterConsistency(lines []string, delimiter rune) float64 {
	firstLineColumns := countColumns(lines[0], delimiter)
	if firstLineColumns < 2 {
		return 0.0
	}
	if len(lines) == 1 {
		return 0.5
	}

	consistentLines := 0
	for _, line := range lines {
		columns := countColumns(line, delimiter)
		// Allow +-1 column to tolerate trailing empty fields
		if columns >= firstLineColumns-1 && columns <= firstLineColumns+1 {
			consistentLines++
		}
	}

	consistency := float64(consistentLines) / float64(len(lines))

	columnBonus := float64(firstLineColumns) * 0.1
	if columnBonus > 0.3 {
		columnBonus = 0.3
	}

	return consistency + columnBonus
}

// countColumns counts fields outside double quotes
func countColumns(line string, delimiter rune) int {
	inQuotes := false
	count := 1
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delimiter && !inQuotes:
			count++
		}
	}
	return count
}

// DecodeText returns content as UTF-8. Input that is not valid UTF-8 is read
// as Windows-1252, which is what spreadsheet exports fall back to.
func DecodeText(content []byte) ([]byte, string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if utf8.Valid(content) {
		return content, "utf-8", nil
	}
	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), content)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode windows-1252 content: %w", err)
	}
	return decoded, "windows-1252", nil
}

// ParseCSVWithDetectedDelimiter decodes, analyzes and parses a CSV file
func ParseCSVWithDetectedDelimiter(reader io.Reader) ([][]string, *CSVAnalysisResult, error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read content: %w", err)
	}

	content, encoding, err := DecodeText(raw)
	if err != nil {
		return nil, nil, err
	}

	analysis, err := AnalyzeCSV(bytes.NewReader(content))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to analyze csv: %w", err)
	}
	analysis.Encoding = encoding

	csvReader := csv.NewReader(bytes.NewReader(content))
	csvReader.Comma = analysis.Delimiter
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, analysis, fmt.Errorf("failed to parse csv: %w", err)
	}

	return records, analysis, nil
}
