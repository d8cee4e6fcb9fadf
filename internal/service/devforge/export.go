package devforge

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/zhouzirui/creator-surge/backend/internal/model/project"
)

// Bundle is the downloadable set of a project's generated files.
type Bundle struct {
	Filename string
	Files    []project.CodeFile
}

// Export collects the newest version of every generated file in the project.
func (s *Service) Export(ctx context.Context, projectID string) (Bundle, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return Bundle{}, err
	}
	files, err := s.latestFiles(ctx, projectID)
	if err != nil {
		return Bundle{}, err
	}
	if len(files) == 0 {
		return Bundle{}, ErrNoGeneratedFiles
	}
	return Bundle{Filename: Slug(p.Name) + ".zip", Files: files}, nil
}

// WriteZip packages the bundle as a zip archive.
func (b Bundle) WriteZip(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, f := range b.Files {
		fw, err := zw.Create(f.Path)
		if err != nil {
			return fmt.Errorf("add %s: %w", f.Path, err)
		}
		if _, err := io.WriteString(fw, f.Content); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	return zw.Close()
}

func (s *Service) latestFiles(ctx context.Context, projectID string) ([]project.CodeFile, error) {
	chats, err := s.store.ListProjectChats(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project chats: %w", err)
	}

	latest := make(map[string]string)
	for _, c := range chats {
		if c.CodeGenerated == nil {
			continue
		}
		for _, f := range c.CodeGenerated.Files {
			if p := archivePath(f.Path); p != "" {
				latest[p] = f.Content
			}
		}
	}

	out := make([]project.CodeFile, 0, len(latest))
	for p, content := range latest {
		out = append(out, project.CodeFile{Path: p, Content: content})
	}
	slices.SortFunc(out, func(a, b project.CodeFile) int { return strings.Compare(a.Path, b.Path) })
	return out, nil
}

// archivePath keeps entries relative and inside the archive root.
func archivePath(p string) string {
	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(p, "/")
}
