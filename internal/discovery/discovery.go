package discovery

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Format is the encoding of a batch input file.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatYAML
	FormatCSV
)

// String returns the human-readable name of the format.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatCSV:
		return "csv"
	default:
		return "unknown"
	}
}

// ParseFormat converts a string to a Format.
// Valid values: json, yaml (yml), csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	default:
		return FormatUnknown, fmt.Errorf("invalid input format %q: valid formats are json, yaml, csv", s)
	}
}

// FormatPattern maps a glob pattern to a Format. Patterns are matched in
// order against the slash-separated base name; first match wins.
type FormatPattern struct {
	Pattern string
	Format  Format
}

var formatPatterns = []FormatPattern{
	{"*.{json,JSON}", FormatJSON},
	{"*.{yaml,yml,YAML,YML}", FormatYAML},
	{"*.{csv,CSV}", FormatCSV},
}

// DefaultDirPattern is the pattern used when a directory is given as input.
const DefaultDirPattern = "**/*.{json,yaml,yml,csv}"

// DetectFormat determines the input format from a file name.
func DetectFormat(path string) (Format, error) {
	base := filepath.Base(path)
	for _, fp := range formatPatterns {
		matched, err := doublestar.Match(fp.Pattern, base)
		if err != nil {
			continue
		}
		if matched {
			return fp.Format, nil
		}
	}

	ext := filepath.Ext(base)
	if ext == "" {
		return FormatUnknown, fmt.Errorf(
			"cannot determine format: %s has no extension. Use --input-format to specify (json, yaml, csv)", base)
	}
	return FormatUnknown, fmt.Errorf(
		"unsupported file type: %s. shs reads .json, .yaml, .yml and .csv files", ext)
}

// ValidateFilePath checks the preconditions for reading an input file:
// it exists, is a regular file (symlinks are resolved), is not empty and
// does not look binary. It returns the absolute path.
func ValidateFilePath(path string) (absPath string, err error) {
	absPath, err = filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", absPath)
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("permission denied: %s", absPath)
		}
		return "", fmt.Errorf("cannot access file: %s: %w", absPath, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		realPath, evalErr := filepath.EvalSymlinks(absPath)
		if evalErr != nil {
			return "", fmt.Errorf("cannot resolve symlink %s: %w", absPath, evalErr)
		}
		absPath = realPath
		info, err = os.Stat(absPath)
		if err != nil {
			return "", fmt.Errorf("symlink target inaccessible: %s: %w", absPath, err)
		}
	}

	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", absPath)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("file is empty: %s", absPath)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}
	if bytes.Contains(buf[:n], []byte{0}) {
		return "", fmt.Errorf("file appears to be binary, not text: %s", absPath)
	}

	return absPath, nil
}

// File is a discovered batch input.
type File struct {
	Path    string // absolute
	RelPath string // as given or relative to the glob base
	Size    int64
	Format  Format
}

// FileDiscovery expands command-line inputs into input files.
type FileDiscovery struct {
	followSymlinks bool
	forceFormat    Format
}

// NewFileDiscovery creates a new FileDiscovery. A forceFormat other than
// FormatUnknown overrides extension-based detection.
func NewFileDiscovery(followSymlinks bool, forceFormat Format) *FileDiscovery {
	return &FileDiscovery{
		followSymlinks: followSymlinks,
		forceFormat:    forceFormat,
	}
}

// Discover resolves each input, which may be a file, a directory or a
// doublestar glob, into a sorted, de-duplicated list of files. A glob or
// directory that matches nothing is an error, so typos do not pass silently.
func (fd *FileDiscovery) Discover(inputs []string) ([]File, error) {
	seen := make(map[string]bool)
	var files []File

	add := func(f File) {
		if !seen[f.Path] {
			seen[f.Path] = true
			files = append(files, f)
		}
	}

	for _, input := range inputs {
		found, err := fd.discoverOne(input)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (fd *FileDiscovery) discoverOne(input string) ([]File, error) {
	if hasMeta(input) {
		base, pattern := doublestar.SplitPattern(filepath.ToSlash(input))
		return fd.findFilesByPattern(filepath.FromSlash(base), pattern, input)
	}

	info, err := os.Stat(input)
	if err == nil && info.IsDir() {
		return fd.findFilesByPattern(input, DefaultDirPattern, input)
	}

	f, err := fd.fileFor(input, input)
	if err != nil {
		return nil, err
	}
	return []File{f}, nil
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

// findFilesByPattern globs pattern under base.
func (fd *FileDiscovery) findFilesByPattern(base, pattern, input string) ([]File, error) {
	var opts []doublestar.GlobOption
	if !fd.followSymlinks {
		opts = append(opts, doublestar.WithNoFollow())
	}
	matches, err := doublestar.Glob(os.DirFS(base), pattern, opts...)
	if err != nil {
		return nil, fmt.Errorf("error evaluating pattern %s: %w", input, err)
	}

	var files []File
	for _, match := range matches {
		fullPath := filepath.Join(base, filepath.FromSlash(match))
		info, err := os.Lstat(fullPath)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 && !fd.followSymlinks {
			continue
		}
		f, err := fd.fileFor(fullPath, match)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no input files match %s", input)
	}
	return files, nil
}

func (fd *FileDiscovery) fileFor(path, relPath string) (File, error) {
	absPath, err := ValidateFilePath(path)
	if err != nil {
		return File{}, err
	}

	format := fd.forceFormat
	if format == FormatUnknown {
		format, err = DetectFormat(absPath)
		if err != nil {
			return File{}, err
		}
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return File{}, fmt.Errorf("cannot access file: %s: %w", absPath, err)
	}

	return File{
		Path:    absPath,
		RelPath: filepath.ToSlash(relPath),
		Size:    info.Size(),
		Format:  format,
	}, nil
}
