package classifier

import (
	"bufio"
	"os"
	"strings"
)

type lineReader func(path string, limit int) string

// readFirstLines returns the lowercased first lines of a file joined with
// newlines. Read failures degrade to empty content so the keyword rule
// falls through instead of aborting the chain.
func readFirstLines(path string, limit int) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for len(lines) < limit && scanner.Scan() {
		lines = append(lines, strings.ToLower(scanner.Text()))
	}

	return strings.Join(lines, "\n")
}
