package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/logging"
	"github.com/bizdash/bizsync/internal/records"
	"github.com/bizdash/bizsync/internal/server/auth"
	"github.com/bizdash/bizsync/internal/server/repositories/repomanager"
)

// MaintenanceChecker reports whether writes are frozen.
type MaintenanceChecker interface {
	Maintenance(ctx context.Context) (bool, error)
}

// DocumentService scopes every document operation to the caller.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	system      MaintenanceChecker
	logger      logging.Logger
	now         func() time.Time
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, system MaintenanceChecker, logger logging.Logger) *DocumentService {
	return &DocumentService{
		db:          db,
		repomanager: m,
		system:      system,
		logger:      logger.With("module", "document_service"),
		now:         time.Now,
	}
}

func (s *DocumentService) Query(ctx context.Context, caller auth.Identity, table string) ([]records.Document, error) {
	if _, err := records.Lookup(table); err != nil {
		return nil, err
	}
	return s.repomanager.Documents(s.db).Query(ctx, table, caller.UserID)
}

// Upsert stores doc for the caller. A missing owner is filled in; a
// different owner is refused.
func (s *DocumentService) Upsert(ctx context.Context, caller auth.Identity, table string, doc records.Document) error {
	schema, err := records.Lookup(table)
	if err != nil {
		return err
	}
	if err := s.writable(ctx, caller); err != nil {
		return err
	}

	if doc.ID == "" {
		return fmt.Errorf("%w: %s: empty id", common.ErrInvalidRecord, table)
	}
	if doc.UserID == "" {
		doc.UserID = caller.UserID
	}
	if doc.UserID != caller.UserID {
		return common.ErrOwnerConflict
	}
	if err := schema.Check(doc); err != nil {
		return err
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = s.now().UTC()
	}

	if err := s.repomanager.Documents(s.db).Upsert(ctx, table, doc); err != nil {
		return err
	}
	s.logger.Debug(ctx, "document stored", "table", table, "id", doc.ID, "user_id", caller.UserID)
	return nil
}

func (s *DocumentService) Delete(ctx context.Context, caller auth.Identity, table, id string) error {
	if _, err := records.Lookup(table); err != nil {
		return err
	}
	if err := s.writable(ctx, caller); err != nil {
		return err
	}
	if err := s.repomanager.Documents(s.db).Delete(ctx, table, id, caller.UserID); err != nil {
		return err
	}
	s.logger.Debug(ctx, "document removed", "table", table, "id", id, "user_id", caller.UserID)
	return nil
}

// writable refuses non-admin writes during maintenance.
func (s *DocumentService) writable(ctx context.Context, caller auth.Identity) error {
	if caller.IsAdmin() {
		return nil
	}
	on, err := s.system.Maintenance(ctx)
	if err != nil {
		return fmt.Errorf("read maintenance mode: %w", err)
	}
	if on {
		return common.ErrMaintenance
	}
	return nil
}
