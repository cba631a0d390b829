package repository

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pointage_backend/internals/features/attendance/time_entries/model"
	"pointage_backend/internals/features/attendance/time_entries/service"
)

// dryRunDB renders SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=pointage dbname=pointage sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return db
}

func TestWhereScope(t *testing.T) {
	db := dryRunDB(t)
	user := uuid.New()
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []model.TimeEntryModel
		return tx.Model(&model.TimeEntryModel{}).
			Scopes(where(service.EntryFilter{
				UserID:      &user,
				ClockedFrom: &from,
				ClockedTo:   &to,
				StatusNotIn: []model.PointageStatus{model.StatusRejected},
				TypeIn:      []model.PointageType{model.PointageClockIn, model.PointageClockOut},
			})).
			Find(&rows)
	})

	for _, want := range []string{
		`FROM "time_entries"`,
		"time_entry_user_id = '" + user.String() + "'",
		"time_entry_clocked_at >= ",
		"time_entry_clocked_at <= ",
		"time_entry_pointage_status NOT IN ('REJECTED')",
		"time_entry_pointage_type IN ('CLOCK_IN','CLOCK_OUT')",
		`"time_entries"."time_entry_deleted_at" IS NULL`,
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("sql lacks %q:\n%s", want, sql)
		}
	}
	if strings.Contains(sql, "time_entry_session_id") {
		t.Errorf("unset session filter rendered:\n%s", sql)
	}
}

func TestGroupCountRejectsUnknownColumn(t *testing.T) {
	repo := NewTimeEntryRepository(dryRunDB(t))
	if _, err := repo.GroupCount(t.Context(), service.EntryFilter{}, "time_entry_user_agent; DROP TABLE x"); err == nil {
		t.Fatal("want error for non-groupable column")
	}
}

func TestInsertMapsLocalIDConflict(t *testing.T) {
	db := dryRunDB(t)
	dup := &pgconn.PgError{Code: "23505"}
	db.Callback().Create().Before("gorm:create").Register("test:unique_violation", func(tx *gorm.DB) {
		_ = tx.AddError(dup)
	})
	repo := NewTimeEntryRepository(db)

	local := "device-1"
	err := repo.Insert(t.Context(), &model.TimeEntryModel{TimeEntryLocalID: &local})
	if !errors.Is(err, service.ErrLocalIDConflict) {
		t.Fatalf("offline insert err = %v, want ErrLocalIDConflict", err)
	}

	err = repo.Insert(t.Context(), &model.TimeEntryModel{})
	if errors.Is(err, service.ErrLocalIDConflict) || err == nil {
		t.Fatalf("online insert err = %v, want the raw unique violation", err)
	}
}
