// Package seed loads YAML fixtures of employee document trees into an item store.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"hrdocs/internal/domain/models/docsystem"
	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
)

// Fixture is a set of employee document trees
type Fixture struct {
	Employees []Employee `yaml:"employees"`
}

// Employee is one employee's root level
type Employee struct {
	ID    string `yaml:"id"`
	Items []Node `yaml:"items"`
}

// Node is a folder (with children) or a file
type Node struct {
	Folder    string `yaml:"folder"`
	File      string `yaml:"file"`
	OwnerRole string `yaml:"owner_role"`
	MimeType  string `yaml:"mime_type"`
	Content   string `yaml:"content"`
	NoContent bool   `yaml:"no_content"` // file item whose bytes were never stored
	Children  []Node `yaml:"children"`
}

// Stats counts what Apply created
type Stats struct {
	Employees int
	Folders   int
	Files     int
}

// LoadFixture parses and checks a YAML fixture
func LoadFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	for _, emp := range f.Employees {
		if strings.TrimSpace(emp.ID) == "" {
			return nil, fmt.Errorf("fixture employee without id")
		}
		if err := checkNodes(emp.ID, emp.Items); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

func checkNodes(path string, nodes []Node) error {
	for _, n := range nodes {
		switch {
		case n.Folder != "" && n.File != "":
			return fmt.Errorf("%s: node names both folder %q and file %q", path, n.Folder, n.File)
		case n.Folder != "":
			if err := checkNodes(path+"/"+n.Folder, n.Children); err != nil {
				return err
			}
		case n.File != "":
			if len(n.Children) > 0 {
				return fmt.Errorf("%s/%s: files cannot have children", path, n.File)
			}
		default:
			return fmt.Errorf("%s: node needs a folder or file name", path)
		}
	}
	return nil
}

// Seeder writes fixtures through the store interfaces
type Seeder struct {
	store   docsysRepo.ItemStore
	content docsysRepo.ContentStore
	now     func() time.Time
	logger  *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(store docsysRepo.ItemStore, content docsysRepo.ContentStore, logger *slog.Logger) *Seeder {
	return &Seeder{store: store, content: content, now: time.Now, logger: logger}
}

// Clear deletes every item of the employee
func (s *Seeder) Clear(ctx context.Context, employeeID string) (int, error) {
	items, err := s.store.List(ctx, employeeID)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", employeeID, err)
	}
	if len(items) == 0 {
		return 0, nil
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	if err := s.store.Delete(ctx, employeeID, ids); err != nil {
		return 0, fmt.Errorf("delete %s: %w", employeeID, err)
	}
	return len(ids), nil
}

// Apply creates the fixture's trees. Existing items are left alone.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (*Stats, error) {
	stats := &Stats{}
	for _, emp := range f.Employees {
		if err := s.applyLevel(ctx, emp.ID, nil, emp.Items, stats); err != nil {
			return stats, err
		}
		stats.Employees++
		s.logger.Info("employee seeded", "employee_id", emp.ID)
	}
	return stats, nil
}

// applyLevel stores one folder level: files in one batch, then subfolders
func (s *Seeder) applyLevel(ctx context.Context, employeeID string, parentID *string, nodes []Node, stats *Stats) error {
	var files []docsysRepo.NewFile
	for _, n := range nodes {
		if n.File == "" {
			continue
		}
		file := docsysRepo.NewFile{
			Name:       n.File,
			OwnerRole:  docsystem.ParseRole(n.OwnerRole),
			MimeType:   n.MimeType,
			UploadedAt: s.now(),
		}
		if file.MimeType == "" {
			file.MimeType = "text/plain; charset=utf-8"
		}
		if !n.NoContent {
			ref, size, err := s.content.Put(ctx, employeeID, n.File, file.MimeType, strings.NewReader(n.Content))
			if err != nil {
				return fmt.Errorf("store content of %s: %w", n.File, err)
			}
			file.ContentRef = ref
			file.SizeBytes = size
		}
		files = append(files, file)
	}
	if len(files) > 0 {
		created, err := s.store.UploadFiles(ctx, employeeID, parentID, files)
		if err != nil {
			return fmt.Errorf("upload files under %s: %w", docsystem.ParentKey(parentID), err)
		}
		stats.Files += len(created)
	}

	for _, n := range nodes {
		if n.Folder == "" {
			continue
		}
		folder, err := s.store.CreateFolder(ctx, employeeID, docsysRepo.NewFolder{
			ParentID:  parentID,
			Name:      n.Folder,
			OwnerRole: docsystem.ParseRole(n.OwnerRole),
		})
		if err != nil {
			return fmt.Errorf("create folder %s: %w", n.Folder, err)
		}
		stats.Folders++
		id := folder.ID
		if err := s.applyLevel(ctx, employeeID, &id, n.Children, stats); err != nil {
			return err
		}
	}
	return nil
}
