package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	resume := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(resume, []byte("\n  Jane Doe, Go developer\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(blank, []byte(" \n\t"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{
			name: "inline value is trimmed",
			src:  Source{Name: "api key", Value: "  key-123 "},
			want: "key-123",
		},
		{
			name: "file wins over value",
			src:  Source{Name: "resume", Value: "inline", File: resume},
			want: "Jane Doe, Go developer",
		},
		{
			name: "stdin",
			src:  Source{Name: "resume", File: Stdin, Stdin: strings.NewReader("piped resume\n")},
			want: "piped resume",
		},
		{
			name:    "nothing configured",
			src:     Source{Name: "api key"},
			wantErr: "api key is not configured",
		},
		{
			name:    "default name",
			src:     Source{},
			wantErr: "secret is not configured",
		},
		{
			name:    "blank file",
			src:     Source{Name: "resume", File: blank},
			wantErr: "is empty",
		},
		{
			name:    "blank stdin",
			src:     Source{Name: "resume", File: Stdin, Stdin: strings.NewReader("   ")},
			wantErr: "resume read from stdin is empty",
		},
		{
			name:    "missing file",
			src:     Source{Name: "resume", File: filepath.Join(dir, "nope.txt")},
			wantErr: "reading resume from file",
		},
		{
			name:    "oversized input",
			src:     Source{Name: "resume", File: Stdin, Stdin: strings.NewReader(strings.Repeat("a", maxSize+1))},
			wantErr: "larger than",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
