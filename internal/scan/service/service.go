// Package service implements the scan pipeline: photo in, district out.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"bezirk_scanner/internal/adapters/storage"
	"bezirk_scanner/internal/events"
	"bezirk_scanner/internal/extraction"
	"bezirk_scanner/internal/lookup"
	"bezirk_scanner/internal/session"
	"bezirk_scanner/internal/streets"
	"bezirk_scanner/platform/apperr"
	"bezirk_scanner/platform/logger"
	"bezirk_scanner/platform/metrics"
)

// User-facing messages. The front end shows them as they are.
const (
	MsgNoSignDetected   = "Konnte keine Straße erkennen. Bitte nochmal versuchen."
	MsgNoAPIKey         = "Fehler: Kein API Key gefunden. Bitte Konfiguration prüfen."
	MsgCredentialFatal  = "Kritischer Fehler: Der API Key fehlt! Bitte den Dienst mit einem gültigen Key neu deployen."
	MsgImportFailed     = "Fehler beim Lesen der Datei."
	MsgSessionNotFound  = "Sitzung nicht gefunden."
	MsgScanSuperseded   = "Der Scan wurde abgebrochen."
	MsgInvalidImage     = "Ungültiges Bild."
	MsgTableTooLarge    = "Die Datei ist zu groß."
	MsgInvalidFlowState = "Dieser Schritt ist gerade nicht möglich."
)

// Error codes returned alongside the messages.
const (
	CodeNoSignDetected    = "no_sign_detected"
	CodeCredentialMissing = "credential_missing"
	CodeExtractionFailed  = "extraction_failed"
	CodeScanSuperseded    = "scan_superseded"
	CodeImportFailed      = "import_failed"
	CodeSessionNotFound   = "session_not_found"
	CodeInvalidImage      = "invalid_image"
	CodeInvalidState      = "invalid_state"
)

// Scan outcomes used for logs and metrics.
const (
	OutcomeResolved   = "resolved"
	OutcomeNoSign     = "no_sign"
	OutcomeCredential = "credential_missing"
	OutcomeFailed     = "failed"
	OutcomeSuperseded = "superseded"
)

// SpeechLang is the voice the front end reads the district with.
const SpeechLang = "de-DE"

// Config holds the tunables of the pipeline.
type Config struct {
	MaxImageSize  int64
	MaxTableSize  int64
	ArchiveBucket string
}

// Deps are the collaborators of the Service. Archive and Metrics may be nil.
type Deps struct {
	Sessions  *session.Store
	Extractor extraction.Extractor
	Provider  string
	Resolver  *streets.Resolver
	EventBus  events.Bus
	Archive   storage.StorageService
	Metrics   *metrics.Metrics
	Log       *logger.Logger
	Config    Config
}

// Service runs scans, manual lookups and table imports against sessions.
type Service struct {
	sessions  *session.Store
	extractor extraction.Extractor
	provider  string
	resolver  *streets.Resolver
	eventBus  events.Bus
	archive   storage.StorageService
	metrics   *metrics.Metrics
	log       *logger.Logger
	cfg       Config
}

// New builds the service.
func New(d Deps) *Service {
	resolver := d.Resolver
	if resolver == nil {
		resolver = streets.DefaultResolver()
	}
	log := d.Log
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		sessions:  d.Sessions,
		extractor: d.Extractor,
		provider:  d.Provider,
		resolver:  resolver,
		eventBus:  d.EventBus,
		archive:   d.Archive,
		metrics:   d.Metrics,
		log:       log,
		cfg:       d.Config,
	}
}

// Outcome is a finished scan.
type Outcome struct {
	Result    streets.Result
	Capture   Capture
	ObjectKey string
}

// Speech returns the text to read out, empty when there is nothing to say.
func (o Outcome) Speech() string {
	return o.Result.District
}

// APIStatus describes the configured extraction backend.
type APIStatus struct {
	Configured bool
	Provider   string
}

// ImportResult reports a successful table import.
type ImportResult struct {
	Entries int
	Message string
}

// APIStatus reports whether scans can run at all.
func (s *Service) APIStatus() APIStatus {
	return APIStatus{Configured: s.extractor != nil && s.extractor.Available(), Provider: s.provider}
}

// CreateSession starts a session.
func (s *Service) CreateSession(ctx context.Context) session.Status {
	sess := s.sessions.Create()
	s.log.WithContext(ctx).WithSessionID(sess.ID).Debug("session created")
	return sess.Status()
}

// Status returns a session snapshot.
func (s *Service) Status(id string) (session.Status, error) {
	sess, err := s.session(id)
	if err != nil {
		return session.Status{}, err
	}
	return sess.Status(), nil
}

// EndSession drops a session and cancels its scan.
func (s *Service) EndSession(id string) error {
	if err := s.sessions.Delete(id); err != nil {
		return mapSessionErr(err)
	}
	return nil
}

// OpenCamera enters the CAMERA step. Without a key the camera stays closed.
func (s *Service) OpenCamera(id string) (session.Status, error) {
	sess, err := s.session(id)
	if err != nil {
		return session.Status{}, err
	}
	if !s.APIStatus().Configured {
		return session.Status{}, apperr.Unavailable(MsgNoAPIKey).WithCode(CodeCredentialMissing)
	}
	if err := sess.OpenCamera(); err != nil {
		return session.Status{}, mapSessionErr(err)
	}
	return sess.Status(), nil
}

// CloseCamera leaves the camera, cancelling a scan in flight.
func (s *Service) CloseCamera(id string) (session.Status, error) {
	sess, err := s.session(id)
	if err != nil {
		return session.Status{}, err
	}
	if err := sess.CloseCamera(); err != nil {
		return session.Status{}, mapSessionErr(err)
	}
	return sess.Status(), nil
}

// Reset returns the flow to IDLE.
func (s *Service) Reset(id string) (session.Status, error) {
	sess, err := s.session(id)
	if err != nil {
		return session.Status{}, err
	}
	sess.Reset()
	return sess.Status(), nil
}

// Scan reads the sign in img and resolves its district against the
// session's table.
func (s *Service) Scan(ctx context.Context, sessionID string, img extraction.Image) (*Outcome, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	log := s.log.WithContext(ctx).WithSessionID(sess.ID)

	if !s.APIStatus().Configured {
		return nil, apperr.Unavailable(MsgNoAPIKey).WithCode(CodeCredentialMissing)
	}
	if err := s.validateImage(img); err != nil {
		return nil, err
	}

	scanCtx, ticket := sess.BeginProcessing(ctx)
	start := time.Now()

	extracted, err := s.extractor.Extract(scanCtx, img)
	s.metrics.ExtractionObserved(s.provider, time.Since(start))

	if err != nil {
		return nil, s.failScan(log, sess, ticket, err, start)
	}

	if !extracted.Detected() {
		if finishErr := sess.Abandon(ticket); finishErr != nil {
			return nil, s.superseded(log, start)
		}
		s.record(log, OutcomeNoSign, "", "", start)
		return nil, apperr.Validation(MsgNoSignDetected).WithCode(CodeNoSignDetected).WithOp("scan.Scan")
	}

	result := s.resolver.Resolve(streets.Input{
		Street:    extracted.Street,
		Number:    extracted.Number,
		Table:     sess.Table(),
		StreetBox: extracted.StreetBox,
		NumberBox: extracted.NumberBox,
	})

	if err := sess.Complete(ticket, result); err != nil {
		return nil, s.superseded(log, start)
	}

	outcome := &Outcome{
		Result:  result,
		Capture: readCapture(img.Data, img.MIMEType),
	}
	outcome.ObjectKey = s.archiveCapture(ctx, log, sess.ID, img)

	s.metrics.Resolved(string(result.Source))
	s.record(log, OutcomeResolved, result.Name, result.District, start)
	s.publish(ctx, events.ScanCompleted{
		BaseEvent: events.NewBaseEvent(),
		SessionID: sess.ID,
		Street:    result.Name,
		Number:    result.Number,
		District:  result.District,
		Source:    string(result.Source),
		ObjectKey: outcome.ObjectKey,
	})

	return outcome, nil
}

func (s *Service) failScan(log *logger.Logger, sess *session.Session, ticket session.Ticket, err error, start time.Time) error {
	if errors.Is(err, extraction.ErrCredentialMissing) {
		if finishErr := sess.Abandon(ticket); finishErr != nil {
			return s.superseded(log, start)
		}
		s.record(log, OutcomeCredential, "", "", start)
		return apperr.Wrap(apperr.KindUnavailable, MsgCredentialFatal, err).WithCode(CodeCredentialMissing)
	}

	var extractionErr *extraction.ExtractionError
	if !errors.As(err, &extractionErr) {
		extractionErr = &extraction.ExtractionError{Err: err}
	}
	message := extractionErr.Error()

	if finishErr := sess.Fail(ticket, message); finishErr != nil {
		return s.superseded(log, start)
	}
	s.record(log, OutcomeFailed, "", "", start)
	return apperr.Wrap(apperr.KindUpstream, message, err).WithCode(CodeExtractionFailed)
}

func (s *Service) superseded(log *logger.Logger, start time.Time) error {
	s.record(log, OutcomeSuperseded, "", "", start)
	return apperr.Gone(MsgScanSuperseded).WithCode(CodeScanSuperseded)
}

func (s *Service) record(log *logger.Logger, outcome, street, district string, start time.Time) {
	s.metrics.ScanFinished(outcome)
	log.ScanEvent(outcome, street, district, time.Since(start))
}

func (s *Service) validateImage(img extraction.Image) error {
	if err := storage.ValidateImageContentType(img.MIMEType); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, MsgInvalidImage, err).WithCode(CodeInvalidImage)
	}
	if err := storage.ValidateFileSize(int64(len(img.Data)), s.cfg.MaxImageSize); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, MsgInvalidImage, err).WithCode(CodeInvalidImage)
	}
	return nil
}

// archiveCapture stores the photo when an archive is configured. Failures
// are logged and do not fail the scan.
func (s *Service) archiveCapture(ctx context.Context, log *logger.Logger, sessionID string, img extraction.Image) string {
	if s.archive == nil || s.cfg.ArchiveBucket == "" {
		return ""
	}
	name := "capture" + storage.ExtensionFor(img.MIMEType)
	key, err := s.archive.UploadFile(ctx, s.cfg.ArchiveBucket, "sessions/"+sessionID, name, img.MIMEType, bytes.NewReader(img.Data), int64(len(img.Data)))
	if err != nil {
		log.Warn("archiving capture failed", logger.Err(err))
		return ""
	}
	return key
}

// CaptureURL presigns a download link for an archived capture.
func (s *Service) CaptureURL(ctx context.Context, objectKey string) (*storage.PresignedURL, error) {
	if s.archive == nil {
		return nil, apperr.Unavailable("Archiv ist nicht konfiguriert.").WithCode("archive_disabled")
	}
	u, err := s.archive.GenerateDownloadURL(ctx, s.cfg.ArchiveBucket, objectKey)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "Archiv nicht erreichbar.", err)
	}
	return u, nil
}

// Resolve runs the resolver on a typed-in address. With a session ID the
// session's table is consulted.
func (s *Service) Resolve(ctx context.Context, sessionID, street, number string) (streets.Result, error) {
	var table streets.Table
	if sessionID != "" {
		sess, err := s.session(sessionID)
		if err != nil {
			return streets.Result{}, err
		}
		table = sess.Table()
	}

	result := s.resolver.Resolve(streets.Input{Street: street, Number: number, Table: table})
	s.metrics.Resolved(string(result.Source))
	s.log.WithContext(ctx).Debug("manual resolution", "street", street, "district", result.District)
	return result, nil
}

// ImportTable replaces the session's lookup table with the parsed upload.
// On a read failure the old table stays in place.
func (s *Service) ImportTable(ctx context.Context, sessionID, filename string, r io.Reader, skipHeader bool) (ImportResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return ImportResult{}, err
	}

	limit := s.cfg.MaxTableSize
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		s.metrics.TableImported(false)
		s.log.WithContext(ctx).Warn("lookup table read failed", logger.Err(err))
		return ImportResult{}, apperr.Wrap(apperr.KindBadRequest, MsgImportFailed, err).WithCode(CodeImportFailed)
	}
	if limit > 0 && int64(len(data)) > limit {
		s.metrics.TableImported(false)
		return ImportResult{}, apperr.BadRequest(MsgTableTooLarge).WithCode(CodeImportFailed)
	}

	table := lookup.ParseBytes(data, lookup.SkipHeader(skipHeader))
	sess.ReplaceTable(table)
	s.metrics.TableImported(true)

	s.publish(ctx, events.LookupTableImported{
		BaseEvent: events.NewBaseEvent(),
		SessionID: sess.ID,
		Entries:   table.Len(),
		Filename:  filename,
	})

	return ImportResult{
		Entries: table.Len(),
		Message: fmt.Sprintf("%d Straßen erfolgreich geladen.", table.Len()),
	}, nil
}

// ClearTable empties the session's table.
func (s *Service) ClearTable(sessionID string) (session.Status, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return session.Status{}, err
	}
	sess.ClearTable()
	return sess.Status(), nil
}

// ActiveSessions is sampled by the metrics gauge.
func (s *Service) ActiveSessions() int {
	return s.sessions.Len()
}

func (s *Service) session(id string) (*session.Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, mapSessionErr(err)
	}
	return sess, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishSync(ctx, event); err != nil {
		s.log.WithContext(ctx).Warn("event handler failed", "event", event.EventName(), logger.Err(err))
	}
}

func mapSessionErr(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, MsgSessionNotFound, err).WithCode(CodeSessionNotFound)
	case errors.Is(err, session.ErrInvalidTransition):
		return apperr.Wrap(apperr.KindConflict, MsgInvalidFlowState, err).WithCode(CodeInvalidState)
	case errors.Is(err, session.ErrStale):
		return apperr.Wrap(apperr.KindGone, MsgScanSuperseded, err).WithCode(CodeScanSuperseded)
	}
	return err
}
