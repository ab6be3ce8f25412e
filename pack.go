package main

import (
	"archive/zip"
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed all:packtemplate
var embeddedTemplate embed.FS

// Pack is an in-memory behavior pack archive. Entries keep the order they
// were read or added in.
type Pack struct {
	names []string
	files map[string][]byte
}

func newPack() *Pack {
	return &Pack{files: make(map[string][]byte)}
}

// OpenTemplate loads the pack template from a .mcpack file, or the embedded
// default template when path is empty.
func OpenTemplate(path string) (*Pack, error) {
	if path == "" {
		sub, err := fs.Sub(embeddedTemplate, "packtemplate")
		if err != nil {
			return nil, err
		}
		return PackFromFS(sub)
	}
	return OpenPack(path)
}

// OpenPack reads every entry of a zip archive into memory. Directory entries
// are kept so they are written back out.
func OpenPack(path string) (*Pack, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pack: %w", err)
	}
	defer zr.Close()

	p := newPack()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			p.AddFile(f.Name, nil)
			continue
		}

		data, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from pack: %w", f.Name, err)
		}
		p.AddFile(f.Name, data)
	}

	return p, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// PackFromFS builds a pack from every regular file in fsys
func PackFromFS(fsys fs.FS) (*Pack, error) {
	p := newPack()
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		p.AddFile(path, data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load pack template: %w", err)
	}
	return p, nil
}

// AddFile stores an entry, replacing any existing entry with the same name
func (p *Pack) AddFile(name string, data []byte) {
	if _, exists := p.files[name]; !exists {
		p.names = append(p.names, name)
	}
	p.files[name] = data
}

// ReadAsText returns the contents of an entry
func (p *Pack) ReadAsText(name string) (string, error) {
	data, ok := p.files[name]
	if !ok {
		return "", fmt.Errorf("file not found in pack: %s", name)
	}
	return string(data), nil
}

// UpdateFile replaces the contents of an existing entry
func (p *Pack) UpdateFile(name string, data []byte) error {
	if _, ok := p.files[name]; !ok {
		return fmt.Errorf("file not found in pack: %s", name)
	}
	p.files[name] = data
	return nil
}

// ListFiles returns entry names in archive order
func (p *Pack) ListFiles() []string {
	names := make([]string, len(p.names))
	copy(names, p.names)
	return names
}

// WriteTo writes the pack as a zip archive
func (p *Pack) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	modified := time.Now()
	for _, name := range p.names {
		header := &zip.FileHeader{
			Name:     name,
			Modified: modified,
			Method:   zip.Deflate,
		}
		if isDirEntry(name) {
			header.Method = zip.Store
		}

		entry, err := zw.CreateHeader(header)
		if err != nil {
			return cw.n, fmt.Errorf("failed to create %s: %w", name, err)
		}
		if isDirEntry(name) {
			continue
		}

		if _, err := entry.Write(p.files[name]); err != nil {
			return cw.n, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// WriteZip writes the archive to path. The file only appears once it has
// been completely written.
func (p *Pack) WriteZip(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".noteblock-*.mcpack")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write output file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}

func isDirEntry(name string) bool {
	return strings.HasSuffix(name, "/")
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
