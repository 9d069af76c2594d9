package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"kantong/internal/core"
	"kantong/internal/storage"
)

// BalanceReader is the slice of the Aggregator the registry needs to decide
// whether a pocket can be archived.
type BalanceReader interface {
	ComputeBalance(ctx context.Context, pocketID string, month core.MonthKey) (core.PocketBalance, error)
	CurrentMonth() core.MonthKey
}

// PocketRegistry owns pocket metadata and lifecycle rules.
type PocketRegistry struct {
	repo     *storage.Repository
	balances BalanceReader

	// mu serializes writers so that order assignment and the lazy primary
	// pocket are not raced within one process.
	mu sync.Mutex
}

func NewPocketRegistry(repo *storage.Repository, balances BalanceReader) *PocketRegistry {
	return &PocketRegistry{
		repo:     repo,
		balances: balances,
	}
}

// ensurePrimary creates the primary pocket the first time the registry is read.
func (r *PocketRegistry) ensurePrimary(ctx context.Context) error {
	_, err := r.repo.GetPocket(ctx, core.PrimaryPocketID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return err
	}

	now := r.repo.Now()
	primary := core.Pocket{
		ID:        core.PrimaryPocketID,
		Name:      core.PrimaryPocketName,
		Type:      core.PocketPrimary,
		Order:     0,
		Status:    core.PocketActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.repo.PutPocket(ctx, primary); err != nil {
		return fmt.Errorf("create primary pocket: %w", err)
	}
	slog.InfoContext(ctx, "Created primary pocket", "pocket_id", primary.ID)
	return nil
}

// Create adds a custom pocket after every existing one.
func (r *PocketRegistry) Create(ctx context.Context, draft core.PocketDraft) (core.Pocket, error) {
	if err := draft.Validate(); err != nil {
		return core.Pocket{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensurePrimary(ctx); err != nil {
		return core.Pocket{}, err
	}
	existing, err := r.repo.ListPockets(ctx)
	if err != nil {
		return core.Pocket{}, fmt.Errorf("list pockets: %w", err)
	}
	maxOrder := 0
	for _, p := range existing {
		maxOrder = max(maxOrder, p.Order)
	}

	wishlist := true
	if draft.EnableWishlist != nil {
		wishlist = *draft.EnableWishlist
	}

	now := r.repo.Now()
	p := core.Pocket{
		ID:             r.repo.NewPocketID(),
		Name:           strings.TrimSpace(draft.Name),
		Type:           core.PocketCustom,
		Icon:           draft.Icon,
		Color:          draft.Color,
		Order:          maxOrder + 1,
		Status:         core.PocketActive,
		EnableWishlist: &wishlist,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.repo.PutPocket(ctx, p); err != nil {
		return core.Pocket{}, fmt.Errorf("save pocket: %w", err)
	}

	slog.InfoContext(ctx, "Pocket created",
		"pocket_id", p.ID,
		"name", p.Name,
		"order", p.Order)

	return p, nil
}

// Edit changes display fields of a custom pocket. Status and order are untouched.
func (r *PocketRegistry) Edit(ctx context.Context, id string, update core.PocketUpdate) (core.Pocket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.getCustom(ctx, id, "edit")
	if err != nil {
		return core.Pocket{}, err
	}
	if err := update.Validate(); err != nil {
		return core.Pocket{}, err
	}

	if update.Name != nil {
		p.Name = strings.TrimSpace(*update.Name)
	}
	if update.Icon != nil {
		p.Icon = *update.Icon
	}
	if update.Color != nil {
		p.Color = *update.Color
	}
	if update.EnableWishlist != nil {
		v := *update.EnableWishlist
		p.EnableWishlist = &v
	}
	p.UpdatedAt = r.repo.Now()

	if err := r.repo.PutPocket(ctx, p); err != nil {
		return core.Pocket{}, fmt.Errorf("save pocket: %w", err)
	}
	return p, nil
}

// Archive retires a custom pocket whose available balance is exactly zero,
// both for the current month and for the last month holding transactions.
// Archiving an archived pocket returns it unchanged.
func (r *PocketRegistry) Archive(ctx context.Context, id string, reason *string) (core.Pocket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.getCustom(ctx, id, "archive")
	if err != nil {
		return core.Pocket{}, err
	}
	if !p.IsActive() {
		return p, nil
	}

	months, err := r.archiveCheckMonths(ctx)
	if err != nil {
		return core.Pocket{}, err
	}
	for _, month := range months {
		balance, err := r.balances.ComputeBalance(ctx, p.ID, month)
		if err != nil {
			return core.Pocket{}, fmt.Errorf("compute balance: %w", err)
		}
		if balance.AvailableBalance != 0 {
			return core.Pocket{}, &core.BalanceNotZeroError{PocketID: p.ID, Balance: balance.AvailableBalance}
		}
	}

	now := r.repo.Now()
	p.Status = core.PocketArchived
	p.ArchivedAt = &now
	if reason != nil {
		if trimmed := strings.TrimSpace(*reason); trimmed != "" {
			p.ArchivedReason = &trimmed
		}
	}
	p.UpdatedAt = now

	if err := r.repo.PutPocket(ctx, p); err != nil {
		return core.Pocket{}, fmt.Errorf("save pocket: %w", err)
	}

	slog.InfoContext(ctx, "Pocket archived", "pocket_id", p.ID, "name", p.Name)
	return p, nil
}

// Unarchive reactivates a pocket regardless of its balance.
func (r *PocketRegistry) Unarchive(ctx context.Context, id string) (core.Pocket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensurePrimary(ctx); err != nil {
		return core.Pocket{}, err
	}
	p, err := r.repo.GetPocket(ctx, core.NormalizePocketID(id))
	if err != nil {
		return core.Pocket{}, err
	}
	if p.IsActive() && p.ArchivedAt == nil && p.ArchivedReason == nil {
		return p, nil
	}

	p.Status = core.PocketActive
	p.ArchivedAt = nil
	p.ArchivedReason = nil
	p.UpdatedAt = r.repo.Now()

	if err := r.repo.PutPocket(ctx, p); err != nil {
		return core.Pocket{}, fmt.Errorf("save pocket: %w", err)
	}

	slog.InfoContext(ctx, "Pocket unarchived", "pocket_id", p.ID, "name", p.Name)
	return p, nil
}

func (r *PocketRegistry) Get(ctx context.Context, id string) (core.Pocket, error) {
	if err := r.ensurePrimary(ctx); err != nil {
		return core.Pocket{}, err
	}
	return r.repo.GetPocket(ctx, core.NormalizePocketID(id))
}

// List returns the pockets matching filter sorted by order, then id.
func (r *PocketRegistry) List(ctx context.Context, filter core.PocketFilter) ([]core.Pocket, error) {
	if err := r.ensurePrimary(ctx); err != nil {
		return nil, err
	}
	all, err := r.repo.ListPockets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pockets: %w", err)
	}

	out := make([]core.Pocket, 0, len(all))
	for _, p := range all {
		if filter.Match(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// FindByName looks up a pocket by case-insensitive name.
func (r *PocketRegistry) FindByName(ctx context.Context, name string) (core.Pocket, bool, error) {
	all, err := r.List(ctx, core.PocketFilter{})
	if err != nil {
		return core.Pocket{}, false, err
	}
	name = strings.TrimSpace(name)
	for _, p := range all {
		if strings.EqualFold(p.Name, name) {
			return p, true, nil
		}
	}
	return core.Pocket{}, false, nil
}

func (r *PocketRegistry) getCustom(ctx context.Context, id, action string) (core.Pocket, error) {
	id = core.NormalizePocketID(id)
	if id == core.PrimaryPocketID {
		return core.Pocket{}, fmt.Errorf("%w: cannot %s the primary pocket", core.ErrForbidden, action)
	}
	p, err := r.repo.GetPocket(ctx, id)
	if err != nil {
		return core.Pocket{}, err
	}
	if p.IsPrimary() {
		return core.Pocket{}, fmt.Errorf("%w: cannot %s the primary pocket", core.ErrForbidden, action)
	}
	return p, nil
}

// archiveCheckMonths returns the current month, followed by the last month
// holding transactions when that one is later. Custom pockets carry their
// funds forward, so the later month sees every recorded flow.
func (r *PocketRegistry) archiveCheckMonths(ctx context.Context) ([]core.MonthKey, error) {
	current := r.balances.CurrentMonth()
	months, err := r.repo.ListMonths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	if n := len(months); n > 0 && months[n-1] > current {
		return []core.MonthKey{current, months[n-1]}, nil
	}
	return []core.MonthKey{current}, nil
}
