package urls

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	t.Parallel()

	input := "https://a.com/rss\n\n  http://b.com/atom.xml  \n# comment\nc.com/feed.json\n"
	got, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	want := []string{"https://a.com/rss", "http://b.com/atom.xml", "c.com/feed.json"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("Read() = %q, want %q", got, want)
	}
}

func TestRead_Empty(t *testing.T) {
	t.Parallel()

	got, err := Read(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Read() = %q, want empty", got)
	}
}

func TestReadStdin_Pipe(t *testing.T) {
	t.Parallel()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe() error = %v", err)
	}
	go func() {
		w.WriteString("https://a.com/rss\n")
		w.Close()
	}()
	defer r.Close()

	got, err := ReadStdin(r)
	if err != nil {
		t.Fatalf("ReadStdin() error = %v", err)
	}
	if len(got) != 1 || got[0] != "https://a.com/rss" {
		t.Errorf("ReadStdin() = %q", got)
	}
}

func TestParseYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name:    "plain list",
			content: "- https://a.com/rss\n- https://b.com/atom\n",
			want:    []string{"https://a.com/rss", "https://b.com/atom"},
		},
		{
			name:    "feeds key",
			content: "feeds:\n  - https://a.com/rss\n  - \"  \"\n",
			want:    []string{"https://a.com/rss"},
		},
		{
			name:    "empty document",
			content: "",
			want:    nil,
		},
		{
			name:    "scalar",
			content: "https://a.com/rss",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			content: "- [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseYAML([]byte(tt.content))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseYAML() error = %v, wantErr %v", err, tt.wantErr)
			}
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("ParseYAML() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadYAML_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "feeds.yaml")
	if err := os.WriteFile(path, []byte("- https://a.com/rss\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := ReadYAML(path)
	if err != nil {
		t.Fatalf("ReadYAML() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("ReadYAML() = %q", got)
	}

	if _, err := ReadYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
