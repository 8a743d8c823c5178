package tariffs

import (
	"fmt"
	"sync"
)

// ParserFunc is a function that parses a PDF file and returns a schedule.
type ParserFunc func(path string) (*Schedule, error)

// TextParserFunc is a function that parses extracted PDF text and returns a
// schedule.
type TextParserFunc func(text string) (*Schedule, error)

// ParserConfig holds the configuration for a schedule format's parser.
type ParserConfig struct {
	// Key is the unique identifier for this schedule format.
	Key string

	// Name is the human-readable name of the document format.
	Name string

	// ParsePDF parses a PDF file at the given path.
	ParsePDF ParserFunc

	// ParseText parses extracted text from a PDF (useful for testing).
	ParseText TextParserFunc
}

var (
	parsersMu sync.RWMutex
	parsers   = make(map[string]ParserConfig)
)

// RegisterParser registers a parser configuration for a schedule format.
// This is typically called from an init() function in each parser file.
func RegisterParser(cfg ParserConfig) {
	if cfg.Key == "" {
		panic("tariffs: RegisterParser called with empty key")
	}
	if cfg.ParsePDF == nil {
		panic(fmt.Sprintf("tariffs: RegisterParser(%q) called with nil ParsePDF", cfg.Key))
	}

	parsersMu.Lock()
	defer parsersMu.Unlock()

	if _, exists := parsers[cfg.Key]; exists {
		panic(fmt.Sprintf("tariffs: RegisterParser called twice for key %q", cfg.Key))
	}
	parsers[cfg.Key] = cfg
}

// GetParser returns the parser configuration for a format key.
func GetParser(key string) (ParserConfig, bool) {
	parsersMu.RLock()
	defer parsersMu.RUnlock()

	cfg, ok := parsers[key]
	return cfg, ok
}

// ListParsers returns all registered parser keys.
func ListParsers() []string {
	parsersMu.RLock()
	defer parsersMu.RUnlock()

	keys := make([]string, 0, len(parsers))
	for k := range parsers {
		keys = append(keys, k)
	}
	return keys
}
