// Package bugs implements the bug operations shared by the HTTP API, the CLI and
// the MCP tools: validate the payload, run one store call, shape the result.
package bugs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/joescharf/bugtrack/internal/models"
	"github.com/joescharf/bugtrack/internal/store"
	"github.com/joescharf/bugtrack/internal/validation"
)

// Service orchestrates validation and persistence of bugs. It holds no state
// beyond its collaborators and is safe for concurrent use.
type Service struct {
	store store.Store
	log   *slog.Logger
}

// NewService creates a Service over s. A nil logger falls back to slog.Default().
func NewService(s store.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: s, log: log}
}

// List returns every bug, newest first. The slice is never nil.
func (s *Service) List(ctx context.Context) ([]*models.Bug, error) {
	bugs, err := s.store.ListBugs(ctx)
	if err != nil {
		return nil, s.fault("list bugs", err)
	}
	if bugs == nil {
		bugs = []*models.Bug{}
	}
	return bugs, nil
}

// Create validates p and stores a new bug with a trimmed title. Description
// defaults to "" and status to open; the store assigns id and creation time.
func (s *Service) Create(ctx context.Context, p *models.Payload) (*models.Bug, error) {
	if err := validation.Validate(p); err != nil {
		return nil, err
	}
	bug := &models.Bug{
		Title:       strings.TrimSpace(*p.Title),
		Description: p.Description.String(),
		Status:      lo.FromPtrOr(p.Status, models.BugStatusOpen),
	}
	if err := s.store.CreateBug(ctx, bug); err != nil {
		return nil, s.fault("create bug", err)
	}
	s.log.Debug("bug created", "id", bug.ID, "status", bug.Status)
	return bug, nil
}

// Get returns the bug with the given id.
func (s *Service) Get(ctx context.Context, id models.BugID) (*models.Bug, error) {
	bug, err := s.store.GetBug(ctx, id)
	if err != nil {
		return nil, s.storeErr("get bug", err)
	}
	return bug, nil
}

// Update applies the fields supplied in p to the bug with the given id. Supplied
// fields are checked first, then the merged record must pass full validation.
func (s *Service) Update(ctx context.Context, id models.BugID, p *models.Payload) (*models.Bug, error) {
	if err := validation.ValidatePatch(p); err != nil {
		return nil, err
	}
	bug, err := s.store.GetBug(ctx, id)
	if err != nil {
		return nil, s.storeErr("get bug", err)
	}

	apply(bug, p)
	if err := validation.Validate(validation.FromBug(bug)); err != nil {
		return nil, err
	}

	if err := s.store.UpdateBug(ctx, bug); err != nil {
		return nil, s.storeErr("update bug", err)
	}
	s.log.Debug("bug updated", "id", bug.ID, "status", bug.Status)
	return bug, nil
}

// Delete permanently removes the bug with the given id.
func (s *Service) Delete(ctx context.Context, id models.BugID) error {
	if err := s.store.DeleteBug(ctx, id); err != nil {
		return s.storeErr("delete bug", err)
	}
	s.log.Debug("bug deleted", "id", id)
	return nil
}

// Find resolves a full id or a unique, case-insensitive id prefix.
func (s *Service) Find(ctx context.Context, ref string) (*models.Bug, error) {
	if bug, err := s.store.GetBug(ctx, models.BugID(ref)); err == nil {
		return bug, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, s.fault("get bug", err)
	}

	bugs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	upper := strings.ToUpper(ref)
	matches := lo.Filter(bugs, func(b *models.Bug, _ int) bool {
		return strings.HasPrefix(string(b.ID), upper)
	})

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous bug ID %s: matches %d bugs", ref, len(matches))
	}
}

func apply(bug *models.Bug, p *models.Payload) {
	if p.Title != nil {
		bug.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		bug.Description = p.Description.String()
	}
	if p.Status != nil {
		bug.Status = *p.Status
	}
}

// storeErr passes not-found errors through and turns everything else into a fault.
func (s *Service) storeErr(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return err
	}
	return s.fault(op, err)
}

func (s *Service) fault(op string, err error) error {
	s.log.Error("store operation failed", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %w", models.ErrStoreFault, op, err)
}
