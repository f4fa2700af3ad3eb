// Package urls reads the list of feed URLs to fetch.
package urls

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// ErrInteractive is returned when URLs would be read from a terminal.
var ErrInteractive = errors.New("refusing to read feed URLs from a terminal; pipe them in or use --feeds")

// Read returns one URL per line. Surrounding whitespace is trimmed, blank
// lines and lines starting with # are skipped.
func Read(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read urls: %w", err)
	}
	return out, nil
}

// ReadStdin reads URLs from f unless it is an interactive terminal.
func ReadStdin(f *os.File) ([]string, error) {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return nil, ErrInteractive
	}
	return Read(f)
}

// feedList is the mapping form of a feeds file:
//
//	feeds:
//	  - https://example.com/rss
type feedList struct {
	Feeds []string `yaml:"feeds"`
}

// ReadYAML reads URLs from a YAML file holding either a plain list of
// strings or a mapping with a "feeds" list.
func ReadYAML(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

// ParseYAML parses the content of a feeds file.
func ParseYAML(data []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse feeds file: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	var list []string
	switch root := doc.Content[0]; root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("parse feeds file: %w", err)
		}
	case yaml.MappingNode:
		var fl feedList
		if err := root.Decode(&fl); err != nil {
			return nil, fmt.Errorf("parse feeds file: %w", err)
		}
		list = fl.Feeds
	default:
		return nil, errors.New("parse feeds file: expected a list of URLs or a \"feeds\" key")
	}

	out := list[:0]
	for _, u := range list {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out, nil
}
