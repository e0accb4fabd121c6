// Package util - filesystem helpers for the CLI.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/mvlab-ai/go-mtm/matching"
)

// LoadTemplate decodes a single template image. The template name is the
// file's base name without extension.
func LoadTemplate(path string) (matching.Template, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return matching.Template{}, errors.Wrapf(err, "load template %s", path)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return matching.Template{Name: name, Image: img}, nil
}

// LoadTemplateDir reads every supported image file from a directory as a
// template. Entries are sorted by name so the template order, and with
// it the template indices on the detections, is deterministic.
func LoadTemplateDir(dir string) ([]matching.Template, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read template dir %s", dir)
	}

	var templates []matching.Template
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(file.Name())) {
		case ".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".gif":
			t, err := LoadTemplate(filepath.Join(dir, file.Name()))
			if err != nil {
				return nil, err
			}
			templates = append(templates, t)
		}
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})
	return templates, nil
}
