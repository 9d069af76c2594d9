// Package seed imports pockets and templates from a YAML file.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"kantong/internal/core"
	klog "kantong/internal/log"
	"kantong/internal/services"
)

// PocketSeed describes a custom pocket to create.
type PocketSeed struct {
	Name           string `yaml:"name"`
	Icon           string `yaml:"icon"`
	Color          string `yaml:"color"`
	EnableWishlist *bool  `yaml:"enableWishlist"`
}

// TemplateSeed describes a template. Pocket is a pocket name; empty means primary.
type TemplateSeed struct {
	Name   string          `yaml:"name"`
	Kind   string          `yaml:"kind"`
	Amount int64           `yaml:"amount"`
	Pocket string          `yaml:"pocket"`
	Color  *string         `yaml:"color"`
	Items  []core.LineItem `yaml:"items"`
}

// File is the top-level seed document.
type File struct {
	Pockets   []PocketSeed   `yaml:"pockets"`
	Templates []TemplateSeed `yaml:"templates"`
}

// Result counts what Apply did.
type Result struct {
	PocketsCreated   int
	PocketsSkipped   int
	TemplatesCreated int
	TemplatesSkipped int
}

// Load reads and parses a seed file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document, rejecting unknown fields.
func Parse(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return f, nil
}

// Apply creates every pocket whose name is not taken yet (case-insensitive),
// then every template whose kind and name are not taken yet.
func Apply(ctx context.Context, ledger *services.Ledger, f File) (Result, error) {
	var res Result
	registry := ledger.Pockets()

	for _, ps := range f.Pockets {
		if _, ok, err := registry.FindByName(ctx, ps.Name); err != nil {
			return res, err
		} else if ok {
			slog.DebugContext(ctx, "Seed pocket already exists", "name", ps.Name)
			res.PocketsSkipped++
			continue
		}
		_, err := registry.Create(ctx, core.PocketDraft{
			Name:           ps.Name,
			Icon:           ps.Icon,
			Color:          ps.Color,
			EnableWishlist: ps.EnableWishlist,
		})
		if err != nil {
			return res, fmt.Errorf("seed pocket %q: %w", ps.Name, err)
		}
		res.PocketsCreated++
	}

	existing, err := ledger.ListTemplates(ctx)
	if err != nil {
		return res, err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		taken[templateKey(t.Kind, t.Name)] = struct{}{}
	}

	for _, ts := range f.Templates {
		kind := core.Kind(strings.ToLower(strings.TrimSpace(ts.Kind)))
		if _, ok := taken[templateKey(kind, ts.Name)]; ok {
			res.TemplatesSkipped++
			continue
		}

		pocketID := ""
		if strings.TrimSpace(ts.Pocket) != "" {
			p, ok, err := registry.FindByName(ctx, ts.Pocket)
			if err != nil {
				return res, err
			}
			if !ok {
				return res, fmt.Errorf("seed template %q: %w: pocket %q", ts.Name, core.ErrNotFound, ts.Pocket)
			}
			pocketID = p.ID
		}

		_, err := ledger.CreateTemplate(ctx, core.Template{
			Name:     ts.Name,
			Kind:     kind,
			Amount:   ts.Amount,
			PocketID: pocketID,
			Items:    ts.Items,
			Color:    ts.Color,
		})
		if err != nil {
			return res, fmt.Errorf("seed template %q: %w", ts.Name, err)
		}
		taken[templateKey(kind, ts.Name)] = struct{}{}
		res.TemplatesCreated++
	}

	slog.InfoContext(ctx, "Seed applied",
		klog.FieldComponent, klog.ComponentSeed,
		klog.FieldOperation, klog.OpSeed,
		"pockets_created", res.PocketsCreated,
		"pockets_skipped", res.PocketsSkipped,
		"templates_created", res.TemplatesCreated,
		"templates_skipped", res.TemplatesSkipped)
	return res, nil
}

func templateKey(kind core.Kind, name string) string {
	return string(kind) + ":" + strings.ToLower(strings.TrimSpace(name))
}
