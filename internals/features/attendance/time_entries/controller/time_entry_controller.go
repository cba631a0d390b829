package controller

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pointage_backend/internals/features/attendance/time_entries/dto"
	"pointage_backend/internals/features/attendance/time_entries/model"
	"pointage_backend/internals/features/attendance/time_entries/service"
	helper "pointage_backend/internals/helpers"
)

type TimeEntryController struct {
	Service   *service.TimeEntryService
	Validator *validator.Validate
}

func NewTimeEntryController(svc *service.TimeEntryService) *TimeEntryController {
	return &TimeEntryController{
		Service:   svc,
		Validator: validator.New(),
	}
}

// ===============================
// Helpers
// ===============================

// serviceError maps the service error kinds to HTTP errors rendered by
// helper.ErrorHandler.
func serviceError(c *fiber.Ctx, err error) error {
	var ve *service.ValidationError
	var se *service.SequenceViolationError
	switch {
	case errors.As(err, &ve):
		return helper.ValidationErrors(ve.Fields())
	case errors.As(err, &se):
		return fiber.NewError(fiber.StatusConflict, se.Error())
	case errors.Is(err, service.ErrEntryNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrLocalIDConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	log.Printf("[ERROR] %s %s: %v", c.Method(), c.OriginalURL(), err)
	code, msg := helper.MapPGError(err)
	return fiber.NewError(code, msg)
}

func (ctl *TimeEntryController) bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctl.Validator.Struct(out); err != nil {
		return helper.ValidationErrors(fieldErrors(err))
	}
	return nil
}

func fieldErrors(err error) map[string][]string {
	out := map[string][]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = []string{err.Error()}
		return out
	}
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		out[name] = append(out[name], "failed rule "+fe.Tag())
	}
	return out
}

func entryID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// ownEntry loads an entry and checks it belongs to the caller. Admins may
// read any entry.
func (ctl *TimeEntryController) ownEntry(c *fiber.Ctx, id, userID uuid.UUID) (*model.TimeEntryModel, error) {
	m, err := ctl.Service.GetEntry(c.UserContext(), id)
	if err != nil {
		return nil, serviceError(c, err)
	}
	if m.TimeEntryUserID != userID && !helper.IsAdmin(c) {
		return nil, fiber.NewError(fiber.StatusNotFound, service.ErrEntryNotFound.Error())
	}
	return m, nil
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, key+" must be RFC3339 or YYYY-MM-DD")
	}
	return &t, nil
}

func parseDurationQuery(c *fiber.Ctx, key string) (time.Duration, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, key+" must be a duration like 15m or 168h")
	}
	return d, nil
}

// listFilter reads ?session_id, ?status, ?type, ?from, ?to, ?sort and paging.
func listFilter(c *fiber.Ctx) (service.EntryFilter, helper.Paging, error) {
	var f service.EntryFilter
	p := helper.ResolvePaging(c, 20, 200)
	f.Limit, f.Offset = p.Limit, p.Offset
	f.Desc = strings.ToLower(strings.TrimSpace(c.Query("sort", "desc"))) != "asc"

	if s := strings.TrimSpace(c.Query("session_id")); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return f, p, fiber.NewError(fiber.StatusBadRequest, "invalid session_id")
		}
		f.SessionID = &id
	}
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s == "" {
			continue
		}
		st := model.PointageStatus(s)
		if !st.Valid() {
			return f, p, fiber.NewError(fiber.StatusBadRequest, "invalid status "+s)
		}
		f.StatusIn = append(f.StatusIn, st)
	}
	for _, s := range strings.Split(c.Query("type"), ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s == "" {
			continue
		}
		t := model.PointageType(s)
		if !t.Valid() {
			return f, p, fiber.NewError(fiber.StatusBadRequest, "invalid type "+s)
		}
		f.TypeIn = append(f.TypeIn, t)
	}
	var err error
	if f.ClockedFrom, err = parseTimeQuery(c, "from"); err != nil {
		return f, p, err
	}
	if f.ClockedTo, err = parseTimeQuery(c, "to"); err != nil {
		return f, p, err
	}
	return f, p, nil
}

// ===============================
// Handlers (worker)
// ===============================

// POST /time-entries
func (ctl *TimeEntryController) Create(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.CreateTimeEntryRequest
	if err := ctl.bind(c, &req); err != nil {
		return err
	}

	res, err := ctl.Service.CreateEntry(c.UserContext(), req.ToModel(dto.MetaFrom(c, userID)))
	if err != nil {
		return serviceError(c, err)
	}
	return helper.JsonCreated(c, "time entry recorded", dto.CreateTimeEntryResponse{
		Entry:      dto.FromModel(c, res.Entry),
		Signals:    res.Signals,
		Suspicious: res.Signals.Suspicious(),
	})
}

// GET /time-entries
func (ctl *TimeEntryController) ListMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	f, p, err := listFilter(c)
	if err != nil {
		return err
	}
	f.UserID = &userID
	return ctl.list(c, f, p)
}

func (ctl *TimeEntryController) list(c *fiber.Ctx, f service.EntryFilter, p helper.Paging) error {
	rows, total, err := ctl.Service.ListEntries(c.UserContext(), f)
	if err != nil {
		return serviceError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(c, rows), helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}

// GET /time-entries/:id
func (ctl *TimeEntryController) Get(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := entryID(c)
	if err != nil {
		return err
	}
	m, err := ctl.ownEntry(c, id, userID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.FromModel(c, m))
}

// PATCH /time-entries/:id
func (ctl *TimeEntryController) Patch(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := entryID(c)
	if err != nil {
		return err
	}
	if _, err := ctl.ownEntry(c, id, userID); err != nil {
		return err
	}
	var req dto.PatchTimeEntryRequest
	if err := ctl.bind(c, &req); err != nil {
		return err
	}

	m, err := ctl.Service.UpdateEntry(c.UserContext(), id, req.ToPatch(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return helper.JsonUpdated(c, "time entry updated", dto.FromModel(c, m))
}

// POST /time-entries/sync
func (ctl *TimeEntryController) Sync(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	var req dto.SyncBatchRequest
	if err := ctl.bind(c, &req); err != nil {
		return err
	}

	report, err := ctl.Service.Sync(c.UserContext(), userID, req.ToModels(dto.MetaFrom(c, userID)))
	if err != nil {
		return serviceError(c, err)
	}
	return helper.JsonOK(c, "sync processed", report)
}

// POST /time-entries/:id/synced
func (ctl *TimeEntryController) MarkSynced(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := entryID(c)
	if err != nil {
		return err
	}
	if _, err := ctl.ownEntry(c, id, userID); err != nil {
		return err
	}
	m, err := ctl.Service.MarkEntryAsSynced(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return helper.JsonUpdated(c, "time entry synced", dto.FromModel(c, m))
}

// POST /time-entries/:id/sync-attempts
func (ctl *TimeEntryController) SyncAttempt(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := entryID(c)
	if err != nil {
		return err
	}
	if _, err := ctl.ownEntry(c, id, userID); err != nil {
		return err
	}
	var req dto.SyncStatusRequest
	if err := ctl.bind(c, &req); err != nil {
		return err
	}
	m, err := ctl.Service.UpdateSyncStatus(c.UserContext(), id, req.Attempts)
	if err != nil {
		return serviceError(c, err)
	}
	return helper.JsonUpdated(c, "sync attempt recorded", dto.FromModel(c, m))
}

// GET /sessions/:session_id/time-entries
func (ctl *TimeEntryController) Session(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	sessionID, err := helper.ParseUUIDParam(c, "session_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session_id")
	}
	view, err := ctl.Service.Session(c.UserContext(), sessionID)
	if err != nil {
		return serviceError(c, err)
	}
	if !helper.IsAdmin(c) {
		for _, e := range view.Entries {
			if e.TimeEntryUserID != userID {
				return fiber.NewError(fiber.StatusNotFound, "session not found")
			}
		}
	}
	return helper.JsonOK(c, "ok", dto.FromSessionView(c, view))
}

// GET /time-entries/stats?from=&to=
func (ctl *TimeEntryController) Stats(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	if s := strings.TrimSpace(c.Query("user_id")); s != "" && helper.IsAdmin(c) {
		if userID, err = uuid.Parse(s); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
		}
	}
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return err
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if to == nil {
		to = &now
	}
	if from == nil {
		f := to.AddDate(0, 0, -30)
		from = &f
	}

	st, err := ctl.Service.Stats(c.UserContext(), userID, *from, *to)
	if err != nil {
		return serviceError(c, err)
	}
	return helper.JsonOK(c, "ok", st)
}

// ===============================
// Handlers (admin)
// ===============================

// GET /admin/time-entries?user_id=
func (ctl *TimeEntryController) ListAll(c *fiber.Ctx) error {
	f, p, err := listFilter(c)
	if err != nil {
		return err
	}
	if s := strings.TrimSpace(c.Query("user_id")); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
		}
		f.UserID = &id
	}
	return ctl.list(c, f, p)
}

// POST /admin/time-entries/:id/correct
func (ctl *TimeEntryController) Correct(c *fiber.Ctx) error {
	adminID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := entryID(c)
	if err != nil {
		return err
	}
	var req dto.CorrectionRequest
	if err := ctl.bind(c, &req); err != nil {
		return err
	}
	m, err := ctl.Service.ApplyCorrection(c.UserContext(), id, req.ToCorrection(), adminID)
	if err != nil {
		return serviceError(c, err)
	}
	return helper.JsonUpdated(c, "time entry corrected", dto.FromModel(c, m))
}

// POST /admin/time-entries/:id/reject
func (ctl *TimeEntryController) Reject(c *fiber.Ctx) error {
	adminID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := entryID(c)
	if err != nil {
		return err
	}
	var req dto.RejectRequest
	if err := ctl.bind(c, &req); err != nil {
		return err
	}
	m, err := ctl.Service.RejectEntry(c.UserContext(), id, req.Reason, adminID)
	if err != nil {
		return serviceError(c, err)
	}
	return helper.JsonUpdated(c, "time entry rejected", dto.FromModel(c, m))
}

// POST /admin/time-entries/:id/approve
func (ctl *TimeEntryController) Approve(c *fiber.Ctx) error {
	adminID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	id, err := entryID(c)
	if err != nil {
		return err
	}
	m, err := ctl.Service.ApproveEntry(c.UserContext(), id, adminID)
	if err != nil {
		return serviceError(c, err)
	}
	return helper.JsonUpdated(c, "time entry validated", dto.FromModel(c, m))
}

// GET /admin/time-entries/:id/speed-check?max_kmh=
func (ctl *TimeEntryController) SpeedCheck(c *fiber.Ctx) error {
	id, err := entryID(c)
	if err != nil {
		return err
	}
	maxKmh := 0.0
	if s := strings.TrimSpace(c.Query("max_kmh")); s != "" {
		if maxKmh, err = strconv.ParseFloat(s, 64); err != nil || maxKmh <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "max_kmh must be a positive number")
		}
	}
	res, err := ctl.Service.DetectSpeedAnomalyByID(c.UserContext(), id, maxKmh)
	if err != nil {
		return serviceError(c, err)
	}
	return helper.JsonOK(c, "ok", res)
}

// GET /admin/time-entries/:id/geofence-check
func (ctl *TimeEntryController) GeofenceCheck(c *fiber.Ctx) error {
	id, err := entryID(c)
	if err != nil {
		return err
	}
	m, err := ctl.Service.GetEntry(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	res, err := ctl.Service.DetectGeofenceViolation(c.UserContext(), m)
	if err != nil {
		return serviceError(c, err)
	}
	return helper.JsonOK(c, "ok", res)
}

// GET /admin/users/:user_id/duplicates?at=&tolerance=
func (ctl *TimeEntryController) Duplicates(c *fiber.Ctx) error {
	userID, err := helper.ParseUUIDParam(c, "user_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
	}
	at, err := parseTimeQuery(c, "at")
	if err != nil {
		return err
	}
	if at == nil {
		return fiber.NewError(fiber.StatusBadRequest, "at is required")
	}
	tol, err := parseDurationQuery(c, "tolerance")
	if err != nil {
		return err
	}
	rows, err := ctl.Service.DetectDuplicates(c.UserContext(), userID, *at, tol)
	if err != nil {
		return serviceError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModels(c, rows))
}

// GET /admin/users/:user_id/suspicious?window=
func (ctl *TimeEntryController) Suspicious(c *fiber.Ctx) error {
	userID, err := helper.ParseUUIDParam(c, "user_id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user_id")
	}
	window, err := parseDurationQuery(c, "window")
	if err != nil {
		return err
	}
	flagged, err := ctl.Service.ScanSuspiciousPatterns(c.UserContext(), userID, window)
	if err != nil {
		return serviceError(c, err)
	}
	if flagged == nil {
		flagged = []service.SpeedAnomalyResult{}
	}
	return helper.JsonOK(c, "ok", flagged)
}
