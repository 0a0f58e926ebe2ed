package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func IsBinaryContent(content []byte) bool {
	controlCount := 0
	maxCheckLength := 1024

	if len(content) == 0 {
		return false
	}

	checkLength := min(len(content), maxCheckLength)

	for i := 0; i < checkLength; i++ {
		c := content[i]
		if c == 0 || (c < 32 && c != '\n' && c != '\r' && c != '\t') {
			controlCount++
		}
	}

	return float64(controlCount)/float64(checkLength) > 0.1
}

// IsHTMLFile guesses from the extension whether a file holds markup
func IsHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

/*
   Reads non-empty, non-comment lines from a file, trimmed
*/
func ReadLinesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)

	const maxCapacity = 512 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %v", err)
	}

	return lines, nil
}
