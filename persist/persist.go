// Package persist writes extracted CSS text to files.
package persist

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Ext is default extension of written files.
const Ext = ".css"

// Options select resulting file name. Name takes precedence over Template,
// which takes precedence over Hash.
type Options struct {
	// Name is explicit file name.
	Name string
	// Template is text/template (with sprig functions) expanded with Values.
	Template string
	// Hash names file "<key>.<hash>.css", ShortHash when nil.
	Hash func(text string) string
	// Key is prefix of hashed names and available to templates, "styles"
	// when empty.
	Key string
	// Ext overrides default extension, e.g. ".html" for tag form.
	Ext string
}

// Values are available to file name templates.
type Values struct {
	Key  string
	Hash string
	Size int
}

// ShortHash returns first 16 hex digits of sha256 of text.
func ShortHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:8])
}

// Write writes text into dir under the resolved name and returns the name
// and the written text. File is either written completely or not at all.
func Write(dir, text string, opts Options, log *zap.Logger) (string, string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("persist")

	name, err := Name(text, opts)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := writeFile(filepath.Join(dir, name), []byte(text)); err != nil {
		return "", "", err
	}
	log.Debug("CSS written", zap.String("dir", dir), zap.String("name", name), zap.Int("size", len(text)))
	return name, text, nil
}

// Name returns file name Write would use for text.
func Name(text string, opts Options) (string, error) {
	key := opts.Key
	if key == "" {
		key = "styles"
	}
	hash := opts.Hash
	if hash == nil {
		hash = ShortHash
	}
	ext := opts.Ext
	if ext == "" {
		ext = Ext
	}

	switch {
	case opts.Name != "":
		return cleanName(opts.Name, ext), nil
	case opts.Template != "":
		tmpl, err := template.New("filename").Funcs(sprig.FuncMap()).Parse(opts.Template)
		if err != nil {
			return "", fmt.Errorf("unable to parse file name template: %w", err)
		}
		buf := new(bytes.Buffer)
		if err := tmpl.Execute(buf, Values{Key: key, Hash: hash(text), Size: len(text)}); err != nil {
			return "", fmt.Errorf("unable to expand file name template: %w", err)
		}
		if strings.TrimSpace(buf.String()) == "" {
			return "", errors.New("file name template expanded to empty name")
		}
		return cleanName(buf.String(), ext), nil
	default:
		return cleanName(key+"."+hash(text), ext), nil
	}
}

// cleanName transliterates name into a safe single path element keeping dots
// between parts and ending with ext.
func cleanName(name, ext string) string {
	name = filepath.Base(filepath.FromSlash(strings.TrimSpace(name)))
	if e := filepath.Ext(name); strings.EqualFold(e, ext) {
		name = strings.TrimSuffix(name, e)
	}
	parts := strings.Split(name, ".")
	out := parts[:0]
	for _, p := range parts {
		if s := slug.Make(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		out = append(out, "styles")
	}
	return strings.Join(out, ".") + ext
}

func writeFile(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("unable to write %q: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("unable to sync %q: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("unable to close %q: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("unable to set permissions on %q: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("unable to rename into %q: %w", path, err)
	}
	return nil
}
