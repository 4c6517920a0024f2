package course

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

var (
	errNotObject   = errors.New("course file is not a JSON object")
	errNameMissing = errors.New("course file has no name field")
	errNameType    = errors.New("course name is not a string")
)

const courseExt = ".json"

// Descriptor describes one playable course.
type Descriptor struct {
	Filename string `json:"filename"`
	Name     string `json:"name"`
	File     string `json:"file"`
}

// NewDescriptor builds the descriptor used when the file itself carries no
// usable name. relDir is the URL-relative directory of the course files.
func NewDescriptor(relDir, filename string) Descriptor {
	return Descriptor{
		Filename: filename,
		Name:     DisplayName(filename),
		File:     strings.TrimPrefix(filepath.ToSlash(filepath.Join(relDir, filename)), "/"),
	}
}

// Apply overrides the default name with a successfully parsed one.
func (d Descriptor) Apply(result ParseResult) Descriptor {
	if result.OK {
		d.Name = result.Name
	}
	return d
}

// IsCourseFile reports whether an entry name looks like a course definition.
func IsCourseFile(name string) bool {
	return strings.HasSuffix(name, courseExt)
}

// DisplayName は拡張子を除き、アンダースコアを空白にしてタイトルケースにする
//
//	golf_hole_one.json -> Golf Hole One
func DisplayName(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	// 先頭のドットは拡張子として扱わない (.json -> .json)
	if strings.Trim(stem, ".") == "" {
		stem = filename
	}

	return titleCase(strings.ReplaceAll(stem, "_", " "))
}

// titleCase upper-cases a cased letter that follows an uncased rune and
// lower-cases every other cased letter. Uncased letters such as kana pass
// through and start a new word.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	prevCased := false
	for _, r := range s {
		if isCased(r) {
			if prevCased {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevCased = true
			continue
		}
		b.WriteRune(r)
		prevCased = false
	}

	return b.String()
}

// ParseResult is the outcome of reading one course file. A result that is not
// OK leaves the default descriptor untouched.
type ParseResult struct {
	Name string
	OK   bool
	Err  error
}

// ParseFile reads path and extracts the top level "name" string.
func ParseFile(path string) ParseResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return ParseResult{Err: err}
	}
	return Parse(data)
}

func Parse(data []byte) ParseResult {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return ParseResult{Err: err}
	}

	object, ok := value.(map[string]any)
	if !ok {
		return ParseResult{Err: errNotObject}
	}

	raw, ok := object["name"]
	if !ok {
		return ParseResult{Err: errNameMissing}
	}

	name, ok := raw.(string)
	if !ok {
		return ParseResult{Err: errNameType}
	}

	return ParseResult{Name: name, OK: true}
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}
