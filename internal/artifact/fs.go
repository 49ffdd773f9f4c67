package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"

	"reportengine/internal/codec"
)

// Filesystem keeps artifacts as plain files in one directory.
type Filesystem struct {
	root string
}

func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		root = "./exports"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact dir: %w", err)
	}
	return &Filesystem{root: root}, nil
}

func (f *Filesystem) Driver() Driver { return DriverFilesystem }

func (f *Filesystem) Put(_ context.Context, a codec.Artifact) (Info, error) {
	name, err := sanitizeName(a.Name)
	if err != nil {
		return Info{}, err
	}
	path := filepath.Join(f.root, name)
	if _, err := os.Stat(path); err == nil {
		return Info{}, fmt.Errorf("%w: %s", ErrExists, name)
	}

	tmp, err := os.CreateTemp(f.root, ".tmp-*")
	if err != nil {
		return Info{}, fmt.Errorf("writing artifact: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(a.Body); err != nil {
		_ = tmp.Close()
		return Info{}, fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Info{}, fmt.Errorf("writing artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Info{}, fmt.Errorf("writing artifact: %w", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("writing artifact: %w", err)
	}
	return f.info(stat, a.ContentType), nil
}

func (f *Filesystem) Get(_ context.Context, name string) ([]byte, error) {
	name, err := sanitizeName(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(f.root, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	return data, nil
}

// List returns artifacts sorted by name. Names embed the export timestamp,
// so this is also oldest first.
func (f *Filesystem) List(_ context.Context) ([]Info, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("listing artifacts: %w", err)
		}
		infos = append(infos, f.info(stat, ""))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (f *Filesystem) info(stat fs.FileInfo, contentType string) Info {
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(stat.Name()))
	}
	return Info{
		Name:         stat.Name(),
		Size:         stat.Size(),
		ContentType:  contentType,
		LastModified: stat.ModTime().UTC(),
		Location:     filepath.Join(f.root, stat.Name()),
	}
}
