package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"kantong/internal/core"
)

// CreateTemplate assigns an id and timestamps and stores the template.
func (r *Repository) CreateTemplate(ctx context.Context, t core.Template) (core.Template, error) {
	if err := t.Validate(); err != nil {
		return core.Template{}, err
	}
	now := r.now()
	t.ID = r.newID()
	t.Name = strings.TrimSpace(t.Name)
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := r.putJSON(ctx, TemplateKey(t.ID), t); err != nil {
		return core.Template{}, err
	}
	return t, nil
}

func (r *Repository) GetTemplate(ctx context.Context, id string) (core.Template, error) {
	var t core.Template
	found, err := r.getJSON(ctx, TemplateKey(id), &t)
	if err != nil {
		return core.Template{}, err
	}
	if !found {
		return core.Template{}, fmt.Errorf("%w: template %s", core.ErrNotFound, id)
	}
	return t, nil
}

func (r *Repository) ListTemplates(ctx context.Context) ([]core.Template, error) {
	return scanJSON[core.Template](ctx, r.kv, PrefixTemplate)
}

func (r *Repository) DeleteTemplate(ctx context.Context, id string) error {
	if _, err := r.GetTemplate(ctx, id); err != nil {
		return err
	}
	return r.kv.Del(ctx, TemplateKey(id))
}

// RecordIncomeName bumps the usage counter of an income label.
func (r *Repository) RecordIncomeName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	key := IncomeNameKey(name)
	var entry core.IncomeName
	if _, err := r.getJSON(ctx, key, &entry); err != nil {
		return err
	}
	entry.Name = name
	entry.Uses++
	entry.LastUsedAt = r.now()
	return r.putJSON(ctx, key, entry)
}

// SuggestIncomeNames returns remembered labels starting with prefix, most used first.
func (r *Repository) SuggestIncomeNames(ctx context.Context, prefix string, limit int) ([]core.IncomeName, error) {
	names, err := scanJSON[core.IncomeName](ctx, r.kv, IncomeNameKey(prefix))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(names, func(i, j int) bool {
		if names[i].Uses != names[j].Uses {
			return names[i].Uses > names[j].Uses
		}
		return names[i].LastUsedAt.After(names[j].LastUsedAt)
	})
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}
