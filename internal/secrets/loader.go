package secrets

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Stdin is the File value that makes Load read from Source.Stdin.
const Stdin = "-"

// maxSize caps what Load reads from a file or stdin. Résumés and keys are small.
const maxSize = 1 << 20

// Source names a secret or a piece of profile text and where to read it from.
type Source struct {
	// Name appears in errors, e.g. "resume".
	Name string
	// Value is given inline through the config, environment or flags.
	Value string
	// File wins over Value. Stdin ("-") reads from the Stdin reader.
	File string
	// Stdin is read when File is "-". Defaults to os.Stdin.
	Stdin io.Reader
}

// Load returns the trimmed text from src. It fails when the text is empty, so a
// blank résumé file is reported rather than stored.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	switch file {
	case "":
	case Stdin:
		r := src.Stdin
		if r == nil {
			r = os.Stdin
		}
		data, err := readLimited(r)
		if err != nil {
			return "", fmt.Errorf("reading %s from stdin: %w", name, err)
		}
		src.Value = data
	default:
		f, err := os.Open(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		defer f.Close()

		data, err := readLimited(f)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Value = data
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		switch file {
		case "":
			return "", fmt.Errorf("%s is not configured", name)
		case Stdin:
			return "", fmt.Errorf("%s read from stdin is empty", name)
		default:
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
	}

	return secret, nil
}

func readLimited(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxSize {
		return "", fmt.Errorf("larger than %d bytes", maxSize)
	}

	return string(data), nil
}
