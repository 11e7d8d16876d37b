// Package filename guesses a trading symbol and timeframe from the name of an
// uploaded OHLCV spreadsheet, e.g. "CAPITALCOM_GOLD, 10.csv".
package filename

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultBrokerPrefixes lists the broker tokens that are never taken as a symbol.
var DefaultBrokerPrefixes = []string{"CAPITALCOM"}

var (
	extensionRe = regexp.MustCompile(`(?i)\.(xlsx|csv)$`)
	separatorRe = regexp.MustCompile(`[_ ,]+`)
	numericRe   = regexp.MustCompile(`^\d+$`)
	tickerRe    = regexp.MustCompile(`^[A-Z]+$`)
	unitRe      = regexp.MustCompile(`^\d+[A-Za-z]+$`)
	nonDigitRe  = regexp.MustCompile(`\D`)
)

// Metadata is the upload metadata derived from a file name. Empty Symbol or
// Timeframe means "unknown, await manual entry".
type Metadata struct {
	FileName  string `json:"file_name"`
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
}

// Interpreter parses file names. The zero value uses DefaultBrokerPrefixes.
type Interpreter struct {
	BrokerPrefixes []string
}

// Interpret parses name with the default broker prefixes.
func Interpret(name string) Metadata {
	return Interpreter{}.Interpret(name)
}

// HasSpreadsheetExtension reports whether name ends in .xlsx or .csv.
func HasSpreadsheetExtension(name string) bool {
	return extensionRe.MatchString(name)
}

// Interpret never fails; unmatched fields resolve to empty strings.
func (in Interpreter) Interpret(name string) Metadata {
	base := extensionRe.ReplaceAllString(name, "")

	parts := strings.Split(base, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var symbol, timeframe string
	if len(parts) == 2 {
		segments := strings.Split(parts[0], "_")
		symbol = strings.ToUpper(segments[len(segments)-1])
		timeframe = parts[1]
	} else {
		tokens := separatorRe.Split(base, -1)
		symbol = strings.ToUpper(in.pickSymbol(tokens))
		timeframe = pickTimeframe(tokens)
	}

	return Metadata{
		FileName:  name,
		Symbol:    symbol,
		Timeframe: nonDigitRe.ReplaceAllString(timeframe, ""),
	}
}

func (in Interpreter) pickSymbol(tokens []string) string {
	for _, tok := range tokens {
		if tickerRe.MatchString(tok) && !in.isBroker(tok) {
			return tok
		}
	}
	for _, tok := range tokens {
		if tok == "" || unicode.IsDigit(rune(tok[0])) {
			continue
		}
		if strings.IndexFunc(tok, isASCIILetter) >= 0 && !in.isBroker(tok) {
			return tok
		}
	}
	return ""
}

func pickTimeframe(tokens []string) string {
	for i := len(tokens) - 1; i >= 0; i-- {
		if numericRe.MatchString(tokens[i]) {
			return tokens[i]
		}
	}
	for i := len(tokens) - 1; i >= 0; i-- {
		if unitRe.MatchString(tokens[i]) {
			return tokens[i]
		}
	}
	return ""
}

func (in Interpreter) isBroker(tok string) bool {
	prefixes := in.BrokerPrefixes
	if len(prefixes) == 0 {
		prefixes = DefaultBrokerPrefixes
	}
	for _, p := range prefixes {
		if strings.EqualFold(tok, p) {
			return true
		}
	}
	return false
}

func isASCIILetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}
