// Package docs extracts plain text from uploaded resume/job files.
// Extraction is best-effort and never fails: callers always get a string,
// falling back to a placeholder describing the upload.
package docs

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// ExtractText returns the best text rendering of data it can manage. The
// result may be empty only when the payload itself carries no usable text.
func ExtractText(data []byte, filename string) string {
	var txt string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		txt = extractDocx(data)
	default:
		txt = safeDecode(data)
	}

	// Tiny results usually mean the format fooled us; a raw decode can
	// still salvage embedded text.
	if len(strings.TrimSpace(txt)) < 15 {
		if fb := safeDecode(data); len(strings.TrimSpace(fb)) > len(strings.TrimSpace(txt)) {
			txt = fb
		}
	}
	return strings.TrimSpace(txt)
}

// Placeholder describes an upload whose content could not be extracted.
func Placeholder(kind, filename string, size int) string {
	if filename == "" {
		filename = "unknown"
	}
	return fmt.Sprintf("[Uploaded %s: %s (%d bytes)]", kind, filename, size)
}

func extractDocx(data []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return safeDecode(data)
	}

	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			break
		}
	}
	if doc == nil || err != nil {
		return safeDecode(data)
	}
	defer doc.Close()

	var sb strings.Builder
	dec := xml.NewDecoder(doc)
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br", "p":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return blankRuns.ReplaceAllString(sb.String(), "\n\n")
}

// safeDecode keeps printable text and drops binary noise.
func safeDecode(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}
