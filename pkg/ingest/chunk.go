package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoder is the tiktoken encoding used when none is configured.
const DefaultEncoder = "o200k_base"

// DefaultMaxTokens bounds one chunk when no limit is configured.
const DefaultMaxTokens = 500

// Chunk is one embeddable slice of a document. Start and End are
// sentence indices for text chunks and data row bounds for CSV chunks,
// both half-open.
type Chunk struct {
	Index int
	Start int
	End   int
	Text  string
}

// ChunkText splits extracted text into token-bounded chunks. CSV input
// is split along rows with the header repeated per chunk; everything
// else is split along sentence boundaries.
func ChunkText(text string, format Format, encoder string, maxTokens int) ([]Chunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if encoder == "" {
		encoder = DefaultEncoder
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	if format == FormatCSV {
		return chunkCSV(text, encoder, maxTokens)
	}
	return chunkSentences(text, encoder, maxTokens)
}

func chunkSentences(text, encoder string, maxTokens int) ([]Chunk, error) {
	enc, err := tiktoken.GetEncoding(encoder)
	if err != nil {
		return nil, err
	}

	sentences := splitIntoSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	chunkStart := -1
	chunkEnd := -1

	flush := func() {
		if chunkStart < 0 || chunkEnd <= chunkStart {
			return
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Start: chunkStart,
			End:   chunkEnd,
			Text:  strings.TrimSpace(strings.Join(sentences[chunkStart:chunkEnd], " ")),
		})
		chunkStart = -1
		chunkEnd = -1
	}

	for i := range sentences {
		if chunkStart < 0 {
			chunkStart = i
			chunkEnd = i + 1
			continue
		}

		candidate := strings.Join(sentences[chunkStart:i+1], " ")
		if len(enc.Encode(candidate, nil, nil)) <= maxTokens {
			chunkEnd = i + 1
		} else {
			flush()
			chunkStart = i
			chunkEnd = i + 1
		}
	}
	flush()

	return chunks, nil
}

func chunkCSV(text, encoder string, maxTokens int) ([]Chunk, error) {
	enc, err := tiktoken.GetEncoding(encoder)
	if err != nil {
		return nil, err
	}

	rows := strings.Split(text, "\n")
	if len(rows) == 0 {
		return nil, nil
	}

	var headerRow string
	dataRows := rows
	if hasCSVHeader(rows) {
		headerRow = rows[0]
		dataRows = rows[1:]
	}

	var chunks []Chunk
	var currentRows []string
	rowCursor := 0
	currentTokens := 0

	flush := func() {
		if len(currentRows) == 0 {
			return
		}
		var chunkText strings.Builder
		if headerRow != "" {
			chunkText.WriteString(headerRow)
			chunkText.WriteString("\n")
		}
		chunkText.WriteString(strings.Join(currentRows, "\n"))

		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Start: rowCursor - len(currentRows),
			End:   rowCursor,
			Text:  chunkText.String(),
		})
		currentRows = nil
		currentTokens = 0
	}

	for _, row := range dataRows {
		rowTokens := len(enc.Encode(row, nil, nil)) + 1
		if currentTokens+rowTokens > maxTokens && len(currentRows) > 0 {
			flush()
		}
		currentRows = append(currentRows, row)
		rowCursor++
		currentTokens += rowTokens
	}
	flush()

	return chunks, nil
}

var csvHeaderWords = []string{
	"id", "name", "date", "time", "type", "status",
	"description", "value", "amount", "count", "total", "email", "phone",
}

// hasCSVHeader guesses whether the first row labels the columns rather
// than carrying data. The guess leans on numeric density: headers are
// mostly text even when the data is mostly numbers.
func hasCSVHeader(rows []string) bool {
	if len(rows) < 2 {
		return false
	}

	firstFields := strings.Split(rows[0], ",")
	firstNumeric := 0
	for _, field := range firstFields {
		if isNumericField(field) {
			firstNumeric++
		}
	}

	sampleSize := min(5, len(rows)-1)
	dataNumeric := 0
	dataFields := 0
	for i := 1; i <= sampleSize; i++ {
		for _, field := range strings.Split(rows[i], ",") {
			dataFields++
			if isNumericField(field) {
				dataNumeric++
			}
		}
	}

	firstNumericRatio := float64(firstNumeric) / float64(len(firstFields))
	dataNumericRatio := float64(0)
	if dataFields > 0 {
		dataNumericRatio = float64(dataNumeric) / float64(dataFields)
	}
	if firstNumericRatio < 0.3 && dataNumericRatio > firstNumericRatio+0.2 {
		return true
	}

	headerMatches := 0
	for _, field := range firstFields {
		lower := strings.ToLower(strings.TrimSpace(strings.Trim(field, "\"")))
		for _, word := range csvHeaderWords {
			if strings.Contains(lower, word) {
				headerMatches++
				break
			}
		}
	}
	if headerMatches >= 2 {
		return true
	}

	return firstNumeric == 0 && dataNumeric > 0
}

func isNumericField(field string) bool {
	field = strings.TrimSpace(field)
	field = strings.Trim(field, "\"")
	_, err := strconv.ParseFloat(field, 64)
	return err == nil
}

var tableDelimRow = regexp.MustCompile(`^\s*\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)+\|?\s*$`)

func isTableRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && strings.Contains(trimmed, "|")
}

// splitIntoSentences breaks text into sentences, keeping markdown
// tables intact as single units so a table is never embedded in halves.
func splitIntoSentences(text string) []string {
	lines := strings.Split(text, "\n")
	var sentences []string
	var current strings.Builder

	flushCurrent := func() {
		if current.Len() > 0 {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	appendLine := func(trimmed string) {
		for _, sentence := range splitLineIntoSentences(trimmed) {
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(sentence)

			tail := strings.TrimSpace(sentence)
			if strings.HasSuffix(tail, ".") || strings.HasSuffix(tail, "!") || strings.HasSuffix(tail, "?") {
				flushCurrent()
			}
		}
	}

	inTable := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !inTable && isTableRow(line) && i+1 < len(lines) && tableDelimRow.MatchString(strings.TrimSpace(lines[i+1])) {
			flushCurrent()
			inTable = true
			current.WriteString(line)
			continue
		}

		if !inTable && isTableRow(line) {
			// A lone pipe row without a delimiter below is not a table.
			flushCurrent()
			sentences = append(sentences, trimmed)
			continue
		}

		if inTable {
			if trimmed == "" || !isTableRow(line) {
				inTable = false
				flushCurrent()
				if trimmed != "" {
					appendLine(trimmed)
				}
			} else {
				current.WriteString("\n")
				current.WriteString(line)
			}
			continue
		}

		if trimmed == "" {
			flushCurrent()
		} else {
			appendLine(trimmed)
		}
	}
	flushCurrent()

	var result []string
	for _, sentence := range sentences {
		if strings.TrimSpace(sentence) != "" {
			result = append(result, sentence)
		}
	}
	return result
}

func splitLineIntoSentences(line string) []string {
	var sentences []string
	var current strings.Builder

	for i := 0; i < len(line); i++ {
		current.WriteByte(line[i])

		if line[i] != '.' && line[i] != '!' && line[i] != '?' {
			continue
		}

		// "1. First item" style listings continue the sentence.
		if i > 0 && unicode.IsDigit(rune(line[i-1])) && i+1 < len(line) && line[i+1] == ' ' {
			continue
		}

		j := i + 1
		for j < len(line) && (line[j] == '.' || line[j] == '!' || line[j] == '?') {
			current.WriteByte(line[j])
			j++
		}
		for j < len(line) && (line[j] == '"' || line[j] == '\'' || line[j] == ')' ||
			line[j] == ']' || line[j] == '}') {
			current.WriteByte(line[j])
			j++
		}

		if sentence := strings.TrimSpace(current.String()); sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
		i = j - 1
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		sentences = append(sentences, remaining)
	}
	return sentences
}
