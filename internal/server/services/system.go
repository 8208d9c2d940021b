package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/server/models"
	"github.com/bizdash/bizsync/internal/server/repositories/repomanager"
)

// SystemStatus is what the status endpoints report.
type SystemStatus struct {
	Maintenance bool             `json:"maintenance"`
	ServerTime  time.Time        `json:"serverTime"`
	Documents   map[string]int64 `json:"documents,omitempty"`
}

// SystemService owns server-wide switches.
type SystemService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewSystemService(db *sql.DB, m repomanager.RepositoryManager) *SystemService {
	return &SystemService{db: db, repomanager: m, now: time.Now}
}

// Maintenance reports whether writes are frozen. A missing setting means
// they are not.
func (s *SystemService) Maintenance(ctx context.Context) (bool, error) {
	v, err := s.repomanager.Settings(s.db).Get(ctx, models.SettingMaintenanceMode)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return false, nil
	}
	return on, nil
}

func (s *SystemService) SetMaintenance(ctx context.Context, on bool) error {
	return s.repomanager.Settings(s.db).Set(ctx, models.SettingMaintenanceMode, strconv.FormatBool(on))
}

// Status reports maintenance mode. withCounts adds live document counts
// per collection.
func (s *SystemService) Status(ctx context.Context, withCounts bool) (*SystemStatus, error) {
	on, err := s.Maintenance(ctx)
	if err != nil {
		return nil, err
	}
	st := &SystemStatus{Maintenance: on, ServerTime: s.now().UTC()}
	if withCounts {
		counts, err := s.repomanager.Documents(s.db).Counts(ctx)
		if err != nil {
			return nil, err
		}
		st.Documents = counts
	}
	return st, nil
}
