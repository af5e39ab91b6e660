package crawler

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// pageSegment is the path segment prefix the portal uses for result pages.
const pageSegment = "pagina"

// PageURL returns the URL of result page n of a source. Page 1 is the source
// itself; later pages append "/pagina<n>" to the path.
func PageURL(source string, n int) string {
	if n <= 1 {
		return source
	}
	base, suffix := source, ""
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		base, suffix = source[:i], source[i:]
	}
	return strings.TrimRight(base, "/") + "/" + pageSegment + strconv.Itoa(n) + suffix
}

// SourceKey derives the output key of a source from the last three non-empty
// path segments, joined by "_" (e.g. venta_bogota_bogota-dc).
func SourceKey(source string) (string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", fmt.Errorf("invalid source URL %q: %w", source, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid source URL %q: missing host", source)
	}

	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return u.Hostname(), nil
	}
	if len(segments) > 3 {
		segments = segments[len(segments)-3:]
	}
	return strings.Join(segments, "_"), nil
}

// ReadSources reads newline-delimited source URLs. Blank lines and lines
// starting with '#' are ignored.
func ReadSources(r io.Reader) ([]string, error) {
	var sources []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}
	return sources, nil
}

// ReadSourceFile reads source URLs from a file.
func ReadSourceFile(path string) ([]string, error) {
	f, err := os.Open(path) //#nosec G304 -- CLI tool reads a user-specified file
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadSources(f)
}
