package form

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andeantech/ventas-bff/internal/filter"
	"github.com/andeantech/ventas-bff/internal/notify"
	"github.com/andeantech/ventas-bff/internal/panel"
	"github.com/andeantech/ventas-bff/internal/report"
	"github.com/andeantech/ventas-bff/model"
)

// CatalogSource loads the catalog snapshot for a new session.
type CatalogSource interface {
	Load(ctx context.Context, rctx *model.RequestContext) model.CatalogSnapshot
}

// Generator requests report generation for a valid draft.
type Generator interface {
	Generate(ctx context.Context, rctx *model.RequestContext, draft model.FilterDraft) (*model.ReportPayload, error)
}

// Manager orchestrates filter sessions: it is the sole writer of the
// draft, the error list, and the report payload. It enforces the
// at-most-one in-flight generation per session.
type Manager struct {
	store     Store
	catalogs  CatalogSource
	generator Generator
	validator *filter.Validator
	notifier  notify.Notifier
	logger    *zap.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// NewManager creates a session Manager.
func NewManager(
	store Store,
	catalogs CatalogSource,
	generator Generator,
	validator *filter.Validator,
	notifier notify.Notifier,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		store:     store,
		catalogs:  catalogs,
		generator: generator,
		validator: validator,
		notifier:  notifier,
		logger:    logger,
		inflight:  make(map[string]bool),
	}
}

// Open mounts a new filter session: loads the catalogs, creates an empty
// draft, and persists the session. Failed catalogs are carried in the
// snapshot so the descriptor keeps their selects disabled.
func (m *Manager) Open(ctx context.Context, rctx *model.RequestContext, viewport panel.Viewport) (Session, error) {
	snapshot := m.catalogs.Load(ctx, rctx)

	now := time.Now().UTC()
	session := Session{
		ID:        uuid.New().String(),
		SubjectID: rctx.SubjectID,
		Draft:     model.NewFilterDraft(),
		Status:    StatusIdle,
		Catalogs:  snapshot,
		Viewport:  viewport,
		Panel:     panel.Initial(viewport),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Create(ctx, session); err != nil {
		return Session{}, err
	}

	m.logger.Info("filter session opened",
		zap.String("session_id", session.ID),
		zap.String("subject_id", rctx.SubjectID),
		zap.Int("failed_catalogs", len(snapshot.Failed)),
	)
	return session, nil
}

// Get returns a session scoped to its owner.
func (m *Manager) Get(ctx context.Context, rctx *model.RequestContext, sessionID string) (Session, error) {
	return m.store.Get(ctx, rctx.SubjectID, sessionID)
}

// Close discards a session.
func (m *Manager) Close(ctx context.Context, rctx *model.RequestContext, sessionID string) error {
	return m.store.Delete(ctx, rctx.SubjectID, sessionID)
}

// UpdateFields applies a partial draft edit. Edits are accepted in any
// status; they never interrupt an in-flight generation.
func (m *Manager) UpdateFields(ctx context.Context, rctx *model.RequestContext, sessionID string, changes FieldChanges) (Session, error) {
	session, err := m.store.Get(ctx, rctx.SubjectID, sessionID)
	if err != nil {
		return Session{}, err
	}
	if changes.Empty() {
		return session, nil
	}

	session.apply(changes)
	if err := m.store.Update(ctx, session); err != nil {
		return Session{}, err
	}
	return m.store.Get(ctx, rctx.SubjectID, sessionID)
}

// SubmitOutcome is the result of a submit event.
type SubmitOutcome struct {
	// Dropped is true when another generation was already in flight; no
	// request was issued and the session is unchanged.
	Dropped bool
	// ValidationFailed is true when the draft did not pass validation; the
	// errors are on the session and no request was issued.
	ValidationFailed bool
	Session          Session
}

// Submit validates the draft and, when valid, performs one generation
// request. While a generation is in flight for the session, further
// submits are dropped. A failed generation leaves any previous report
// untouched and surfaces as a form-level error plus a notification.
func (m *Manager) Submit(ctx context.Context, rctx *model.RequestContext, sessionID string) (SubmitOutcome, error) {
	if !m.acquire(sessionID) {
		session, err := m.store.Get(ctx, rctx.SubjectID, sessionID)
		if err != nil {
			return SubmitOutcome{}, err
		}
		return SubmitOutcome{Dropped: true, Session: session}, nil
	}
	defer m.release(sessionID)

	session, err := m.store.Get(ctx, rctx.SubjectID, sessionID)
	if err != nil {
		return SubmitOutcome{}, err
	}
	if session.Status == StatusLoading {
		// A previous submit died mid-flight (process restart). Treat the
		// persisted state as stale and proceed.
		m.logger.Warn("stale loading status on submit", zap.String("session_id", sessionID))
	}

	// Validation short-circuits before any network call.
	errs := m.validator.Validate(&session.Draft)
	if len(errs) > 0 {
		session.Errors = errs
		session.FormError = ""
		session.Status = StatusIdle
		if err := m.store.Update(ctx, session); err != nil {
			return SubmitOutcome{}, err
		}
		updated, err := m.store.Get(ctx, rctx.SubjectID, sessionID)
		if err != nil {
			return SubmitOutcome{}, err
		}
		return SubmitOutcome{ValidationFailed: true, Session: updated}, nil
	}

	session.Errors = nil
	session.FormError = ""
	session.Status = StatusLoading
	if err := m.store.Update(ctx, session); err != nil {
		return SubmitOutcome{}, err
	}
	session, err = m.store.Get(ctx, rctx.SubjectID, sessionID)
	if err != nil {
		return SubmitOutcome{}, err
	}

	payload, genErr := m.generator.Generate(ctx, rctx, session.Draft)

	session.Status = StatusIdle
	if genErr != nil {
		session.FormError = generationMessage(genErr)
		session.Panel = panel.AfterGeneration(session.Panel, session.Viewport, false)
		m.notifier.Notify(ctx, notify.SeverityError, session.FormError)
		m.logger.Warn("report generation failed",
			zap.String("session_id", sessionID),
			zap.Error(genErr),
		)
	} else {
		// The new payload replaces the old one atomically; the page index
		// always restarts at zero.
		session.Report = payload
		session.Page = 0
		session.Panel = panel.AfterGeneration(session.Panel, session.Viewport, true)
	}

	if err := m.store.Update(ctx, session); err != nil {
		return SubmitOutcome{}, err
	}
	updated, err := m.store.Get(ctx, rctx.SubjectID, sessionID)
	if err != nil {
		return SubmitOutcome{}, err
	}
	return SubmitOutcome{Session: updated}, nil
}

// ReportView derives the rendered report for a page and remembers the page
// index on the session.
func (m *Manager) ReportView(ctx context.Context, rctx *model.RequestContext, sessionID string, page int) (report.View, error) {
	session, err := m.store.Get(ctx, rctx.SubjectID, sessionID)
	if err != nil {
		return report.View{}, err
	}
	if session.Report == nil {
		return report.View{}, model.NewNotFoundError(
			fmt.Sprintf("filter session %q has no generated report", sessionID),
		)
	}

	view := report.Derive(session.Report, page)
	if view.Performance.Page != session.Page {
		session.Page = view.Performance.Page
		if err := m.store.Update(ctx, session); err != nil {
			return report.View{}, err
		}
	}
	return view, nil
}

// TogglePanel flips the panel state manually.
func (m *Manager) TogglePanel(ctx context.Context, rctx *model.RequestContext, sessionID string) (Session, error) {
	session, err := m.store.Get(ctx, rctx.SubjectID, sessionID)
	if err != nil {
		return Session{}, err
	}
	session.Panel = panel.Toggle(session.Panel)
	if err := m.store.Update(ctx, session); err != nil {
		return Session{}, err
	}
	return m.store.Get(ctx, rctx.SubjectID, sessionID)
}

// SetViewport records a viewport change reported by the console.
func (m *Manager) SetViewport(ctx context.Context, rctx *model.RequestContext, sessionID string, viewport panel.Viewport) (Session, error) {
	session, err := m.store.Get(ctx, rctx.SubjectID, sessionID)
	if err != nil {
		return Session{}, err
	}
	session.Viewport = viewport
	if err := m.store.Update(ctx, session); err != nil {
		return Session{}, err
	}
	return m.store.Get(ctx, rctx.SubjectID, sessionID)
}

// acquire marks a generation in flight for the session. It returns false
// when one is already running.
func (m *Manager) acquire(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight[sessionID] {
		return false
	}
	m.inflight[sessionID] = true
	return true
}

func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, sessionID)
}

// generationMessage renders a GenerationError for the form-level banner.
func generationMessage(err error) string {
	if genErr, ok := err.(*report.GenerationError); ok {
		switch genErr.Kind {
		case report.FailureNetwork:
			return "No se pudo contactar al servicio de reportes. Intente nuevamente."
		case report.FailureRejected:
			return fmt.Sprintf("El servicio rechazó la solicitud: %s", genErr.Message)
		case report.FailureRemote:
			return "El servicio de reportes presentó un error. Intente nuevamente."
		case report.FailureMalformed:
			return "El servicio de reportes devolvió una respuesta ilegible."
		}
	}
	return "No se pudo generar el reporte."
}
