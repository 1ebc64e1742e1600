package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const upTemplate = `-- Migration: {{.Name}}
-- Description: {{.Description}}

`

const downTemplate = `-- Migration: {{.Name}} (Rollback)

`

// versionWidth matches the zero-padded prefix of the checked-in migrations
const versionWidth = 6

// File is a created up/down migration pair
type File struct {
	Version     uint
	Name        string
	Description string
	CreatedAt   time.Time
	UpPath      string
	DownPath    string
}

// CreateMigration writes the next sequential migration pair into dir
func CreateMigration(dir, name, description string) (*File, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	existing, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%0*d_%s", versionWidth, next, slug)
	f := &File{
		Version:     next,
		Name:        slug,
		Description: description,
		CreatedAt:   time.Now(),
		UpPath:      filepath.Join(dir, base+".up.sql"),
		DownPath:    filepath.Join(dir, base+".down.sql"),
	}

	if err := render(f.UpPath, upTemplate, f); err != nil {
		return nil, err
	}
	if err := render(f.DownPath, downTemplate, f); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, err
	}
	return f, nil
}

func render(target, tmpl string, data *File) error {
	t, err := template.New(path.Base(target)).Parse(tmpl)
	if err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	defer out.Close()
	return t.Execute(out, data)
}

// Entry names one migration found in a source
type Entry struct {
	Version uint
	Name    string
}

// String returns the file base name without direction suffix
func (e Entry) String() string {
	return fmt.Sprintf("%0*d_%s", versionWidth, e.Version, e.Name)
}

// ListMigrations returns the migrations in fsys ordered by version. A missing
// root yields an empty list.
func ListMigrations(fsys fs.FS) ([]Entry, error) {
	dirEntries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	seen := make(map[uint]bool)
	entries := make([]Entry, 0)
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		base, ok := strings.CutSuffix(de.Name(), ".up.sql")
		if !ok {
			continue
		}
		prefix, name, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		version, err := strconv.ParseUint(prefix, 10, 32)
		if err != nil || seen[uint(version)] {
			continue
		}
		seen[uint(version)] = true
		entries = append(entries, Entry{Version: uint(version), Name: name})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Version < entries[j].Version })
	return entries, nil
}

// sanitizeName converts a migration name to a lower-case snake_case slug
func sanitizeName(name string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '_':
			if s := b.String(); len(s) > 0 && !strings.HasSuffix(s, "_") {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
