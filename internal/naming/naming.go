// Package naming turns an expanded output template into a safe, bounded
// filesystem path.
//
// Metadata flowing into paths is hostile input: titles can contain path
// separators, control characters, or ".." segments. The resolver
// sanitizes every substituted field, verifies the result still lives
// under the template's base directory, and bounds the final segment to a
// configurable length without splitting multi-byte characters.
package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"ffgrab/internal/wildcard"
)

// ErrorKind classifies path resolution failures.
type ErrorKind int

const (
	// EmptyPath means the computed path has no usable filename.
	EmptyPath ErrorKind = iota

	// TraversalAttempt means expansion would resolve outside the
	// template's base directory.
	TraversalAttempt

	// TruncationImpossible means the configured length budget is smaller
	// than the extension itself.
	TruncationImpossible
)

func (k ErrorKind) String() string {
	switch k {
	case EmptyPath:
		return "empty path"
	case TraversalAttempt:
		return "traversal attempt"
	case TruncationImpossible:
		return "truncation impossible"
	default:
		return "unknown"
	}
}

// PathError reports why a path could not be resolved.
type PathError struct {
	Kind ErrorKind
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %q: %s", e.Path, e.Kind)
}

const placeholder = "_"

var (
	// Path separators, Windows-reserved punctuation, and control
	// characters are never allowed inside a single path segment.
	invalidChars  = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots  = regexp.MustCompile(`\.+$`)
	multipleSpace = regexp.MustCompile(`\s+`)
)

// SanitizeSegment makes a string safe to use as one path segment.
//
// Disallowed characters become underscores, trailing dots vanish (a
// Windows restriction), runs of whitespace collapse, and the result is
// NFC-normalized so visually identical names compare equal. A segment
// consisting entirely of dots is kept as-is; the resolver rejects it as
// a traversal attempt instead of silently renaming it.
func SanitizeSegment(name string) string {
	name = norm.NFC.String(name)
	name = invalidChars.ReplaceAllString(name, placeholder)
	if strings.Trim(name, ".") != "" {
		name = trailingDots.ReplaceAllString(name, "")
	}
	name = multipleSpace.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}

// SanitizeFields returns a copy of f with every metadata string made
// path-safe. Literal template text is operator-authored and untouched;
// only substituted content is rewritten.
func SanitizeFields(f wildcard.Fields) wildcard.Fields {
	out := f
	out.Artists = make([]string, len(f.Artists))
	for i, a := range f.Artists {
		out.Artists[i] = SanitizeSegment(a)
	}
	out.Separator = SanitizeSegment(f.Separator)
	out.Title = SanitizeSegment(f.Title)
	out.Album = SanitizeSegment(f.Album)
	out.Language = SanitizeSegment(f.Language)
	out.Publisher = SanitizeSegment(f.Publisher)
	return out
}

// Resolver computes output paths from a compiled template.
type Resolver struct {
	template wildcard.Template
	baseDir  string

	// maxNameLen bounds the final segment's name in bytes, excluding the
	// extension. Zero means unbounded.
	maxNameLen int
}

// NewResolver compiles the output template. maxNameLen bounds the final
// path segment (0 = unbounded); the extension is appended outside that
// budget.
func NewResolver(template string, maxNameLen int) *Resolver {
	return &Resolver{
		template:   wildcard.Compile(template),
		baseDir:    literalBaseDir(template),
		maxNameLen: maxNameLen,
	}
}

// literalBaseDir returns the directory prefix of the template that
// appears before any wildcard token. That prefix is operator-authored
// and acts as the boundary expanded paths must stay inside.
func literalBaseDir(template string) string {
	literal := template
	if i := strings.IndexByte(template, '%'); i >= 0 {
		literal = template[:i]
	}
	slash := strings.LastIndexByte(literal, '/')
	if slash < 0 {
		return "."
	}
	if slash == 0 {
		return "/"
	}
	return filepath.Clean(literal[:slash])
}

// Resolve expands the template against f and returns the final output
// path with ext (without dot) appended.
func (r *Resolver) Resolve(f wildcard.Fields, ext string) (string, error) {
	expanded := r.template.Expand(SanitizeFields(f))

	rawBase := strings.TrimSpace(expanded[strings.LastIndexByte(expanded, '/')+1:])
	if rawBase == "" || rawBase == "." || strings.Trim(rawBase, placeholder+" ") == "" {
		return "", &PathError{Kind: EmptyPath, Path: expanded}
	}

	cleaned := filepath.Clean(expanded)
	rel, err := filepath.Rel(r.baseDir, cleaned)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathError{Kind: TraversalAttempt, Path: expanded}
	}

	dir, base := filepath.Split(cleaned)

	if r.maxNameLen > 0 {
		if r.maxNameLen < len(ext) {
			return "", &PathError{Kind: TruncationImpossible, Path: expanded}
		}
		base = truncateName(base, r.maxNameLen)
		if strings.TrimSpace(base) == "" {
			return "", &PathError{Kind: EmptyPath, Path: expanded}
		}
	}

	if ext != "" {
		base += "." + ext
	}
	return filepath.Join(dir, base), nil
}

// truncateName cuts name down to at most max bytes, backing up to the
// previous rune boundary so a multi-byte character is never split.
func truncateName(name string, max int) string {
	if len(name) <= max {
		return name
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
