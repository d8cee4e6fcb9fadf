// Package codeblock pulls generated source files out of fenced model output.
package codeblock

import (
	"strings"

	"github.com/zhouzirui/creator-surge/backend/internal/model/project"
)

const fence = "```"

// Extract scans text line by line and returns every fenced block that carries a filename.
//
// A filename comes either from the token after the language tag on the opening
// fence ("```js src/app.js") or from a preceding "// file: <path>" line. Blocks
// without a filename are skipped, and a block still open at end of input is dropped.
func Extract(text string) []project.CodeFile {
	var (
		files       []project.CodeFile
		currentFile string
		current     []string
		inBlock     bool
	)

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.Contains(line, fence):
			if inBlock {
				if currentFile != "" {
					files = append(files, project.CodeFile{
						Path:    currentFile,
						Content: strings.Join(current, "\n"),
					})
				}
				currentFile = ""
				current = nil
				inBlock = false
				continue
			}
			inBlock = true
			if name := filenameFromFence(line); name != "" {
				currentFile = name
			}
		case inBlock:
			current = append(current, line)
		default:
			if name, ok := filenameFromComment(line); ok {
				currentFile = name
			}
		}
	}

	return files
}

func filenameFromFence(line string) string {
	parts := strings.SplitN(line, fence, 3)
	if len(parts) < 2 {
		return ""
	}
	fields := strings.Fields(parts[1])
	if len(fields) > 1 {
		return fields[1]
	}
	return ""
}

func filenameFromComment(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return "", false
	}
	idx := strings.LastIndex(strings.ToLower(trimmed), "file:")
	if idx < 0 {
		return "", false
	}
	// An empty "// file:" still counts and clears the pending filename.
	return strings.TrimSpace(trimmed[idx+len("file:"):]), true
}
