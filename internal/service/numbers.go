package service

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/callpurity/callpurity-api/internal/bulk"
	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/infra/observability"
	"github.com/callpurity/callpurity-api/internal/infra/resilience"
	"github.com/callpurity/callpurity-api/internal/port"
	"github.com/callpurity/callpurity-api/internal/validation"
)

var numbersTracer = otel.Tracer("service/numbers")

var tableExtensions = []string{".csv", ".xlsx"}

// FileUpload is an uploaded file as received by the transport.
type FileUpload struct {
	Name string
	Size int64
	Body io.Reader
}

// PhoneQuery holds the phone-specific list filters.
type PhoneQuery struct {
	Branded   *bool
	CompanyID string
}

// Export is a rendered table ready to be written out.
type Export struct {
	Filename string
	Format   bulk.Format
	Rows     [][]string
}

// NumbersService manages phone number inventory.
type NumbersService struct {
	store       port.Store
	events      port.EventPublisher
	imports     *resilience.Bulkhead
	maxFileSize int64
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewNumbersService creates a new numbers service. imports caps concurrent
// file imports.
func NewNumbersService(store port.Store, events port.EventPublisher, imports *resilience.Bulkhead, maxFileSize int64, metrics *observability.Metrics, logger *zap.Logger) *NumbersService {
	return &NumbersService{
		store:       store,
		events:      events,
		imports:     imports,
		maxFileSize: maxFileSize,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *NumbersService) readTable(f *FileUpload) ([][]string, error) {
	if f == nil {
		return nil, &domain.ErrValidation{Field: "file", Message: domain.MsgFileRequired}
	}
	if err := validation.File(f.Name, f.Size, s.maxFileSize, tableExtensions...); err != nil {
		return nil, err
	}
	format, err := bulk.FormatFromName(f.Name)
	if err != nil {
		return nil, err
	}

	rows, err := bulk.ReadTable(f.Body, format)
	if err != nil {
		s.logger.Debug("unreadable upload", zap.String("file", f.Name), zap.Error(err))
		return nil, &domain.ErrValidation{Field: "file", Message: "File could not be read"}
	}
	return rows, nil
}

// Upload replaces every number of a client with the rows of the file.
func (s *NumbersService) Upload(ctx context.Context, caller domain.Caller, clientID string, f *FileUpload) (*domain.UploadResult, error) {
	ctx, span := numbersTracer.Start(ctx, "NumbersService.Upload")
	defer span.End()

	if err := requireElevated(caller, "upload numbers"); err != nil {
		return nil, err
	}
	if !validation.ID(clientID) {
		return nil, &domain.ErrValidation{Field: "id", Message: domain.MsgIncorrectID}
	}
	if err := s.imports.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.imports.Release()

	rows, err := s.readTable(f)
	if err != nil {
		return nil, err
	}

	client, err := s.store.Clients().GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return nil, &domain.ErrNotFound{Resource: "Client", ID: clientID}
	}

	now := s.now().UTC()
	phones, err := bulk.PhoneMapping.Decode(rows, func(p *domain.PhoneNumber) {
		p.ID = uuid.NewString()
		p.CompanyID = clientID
		p.CreatedAt = now
		p.UpdatedAt = now
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = s.store.WithinTx(ctx, func(tx port.Repositories) error {
		return tx.Phones().ReplacePhones(ctx, clientID, phones)
	})
	s.metrics.ObserveStore("numbers.replace", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("replace numbers: %w", err)
	}

	ids := make([]string, len(phones))
	for i := range phones {
		ids[i] = phones[i].ID
	}
	s.metrics.AddUploadedRows(len(phones))
	span.SetAttributes(attribute.Int("numbers.count", len(phones)))
	s.logger.Info("numbers replaced", zap.String("client_id", clientID), zap.Int("count", len(phones)))
	s.publish(ctx, domain.Event{Subject: domain.SubjectNumbersReplaced, ClientID: clientID, Count: len(phones), OccurredAt: now})

	return &domain.UploadResult{Message: "Data was successfully uploaded", IDs: ids}, nil
}

// CrossCheck flags stored numbers that appear on a complaint list and groups
// them by owning client. Numbers that are not stored are dropped silently.
func (s *NumbersService) CrossCheck(ctx context.Context, caller domain.Caller, f *FileUpload) (*domain.FTCReport, error) {
	ctx, span := numbersTracer.Start(ctx, "NumbersService.CrossCheck")
	defer span.End()

	if err := requireElevated(caller, "cross-check numbers"); err != nil {
		return nil, err
	}
	if err := s.imports.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.imports.Release()

	rows, err := s.readTable(f)
	if err != nil {
		return nil, err
	}

	submitted := bulk.FirstColumn(rows)
	unique := slices.Compact(slices.Sorted(slices.Values(submitted)))

	report := &domain.FTCReport{Total: len(submitted), Clients: []domain.FTCClient{}}
	if len(unique) == 0 {
		return report, nil
	}

	start := time.Now()
	found, err := s.store.Phones().FindPhonesByTFN(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("find numbers: %w", err)
	}

	ids := make([]string, 0, len(found))
	byClient := make(map[string][]string)
	for _, p := range found {
		ids = append(ids, p.ID)
		byClient[p.CompanyID] = append(byClient[p.CompanyID], p.TFN)
	}
	companyIDs := make([]string, 0, len(byClient))
	for id := range byClient {
		companyIDs = append(companyIDs, id)
	}

	now := s.now().UTC()
	var clients []domain.Client
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.store.Phones().FlagPhones(gctx, ids, now); err != nil {
			return fmt.Errorf("flag numbers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		clients, err = s.store.Clients().ListClientsByIDs(gctx, companyIDs)
		if err != nil {
			return fmt.Errorf("load clients: %w", err)
		}
		return nil
	})
	err = g.Wait()
	s.metrics.ObserveStore("numbers.ftc", time.Since(start))
	if err != nil {
		return nil, err
	}

	// Numbers whose client no longer exists are flagged but left out of the
	// report, so ftcFlagged matches the grouped detail.
	for _, c := range clients {
		report.Flagged += len(byClient[c.ID])
		numbers := slices.Compact(slices.Sorted(slices.Values(byClient[c.ID])))
		report.Clients = append(report.Clients, domain.FTCClient{
			ID:          c.ID,
			CompanyName: c.CompanyName,
			Status:      c.Status,
			Numbers:     numbers,
		})
	}
	slices.SortFunc(report.Clients, func(a, b domain.FTCClient) int {
		return cmp.Or(strings.Compare(a.CompanyName, b.CompanyName), strings.Compare(a.ID, b.ID))
	})

	s.metrics.AddFTCFlagged(report.Flagged)
	span.SetAttributes(
		attribute.Int("ftc.total", report.Total),
		attribute.Int("ftc.flagged", report.Flagged),
	)
	s.logger.Info("complaint list cross-checked",
		zap.Int("submitted", report.Total),
		zap.Int("flagged", report.Flagged),
		zap.Int("clients", len(report.Clients)),
	)
	if report.Flagged > 0 {
		s.publish(ctx, domain.Event{Subject: domain.SubjectNumbersFlagged, Count: report.Flagged, OccurredAt: now})
	}
	return report, nil
}

func (s *NumbersService) filter(caller domain.Caller, search string, q PhoneQuery) (domain.PhoneFilter, error) {
	if q.CompanyID != "" && !validation.ID(q.CompanyID) {
		return domain.PhoneFilter{}, &domain.ErrValidation{Field: "companyId", Message: domain.MsgIncorrectID}
	}
	return domain.PhoneFilter{
		Search:    search,
		Scope:     caller.Scope(),
		Branded:   q.Branded,
		CompanyID: q.CompanyID,
	}, nil
}

// List returns a page of numbers visible to the caller, joined with their
// owning client.
func (s *NumbersService) List(ctx context.Context, caller domain.Caller, p domain.ListParams, q PhoneQuery) (*domain.Page[domain.PhoneView], error) {
	ctx, span := numbersTracer.Start(ctx, "NumbersService.List")
	defer span.End()

	plan, err := planPage(p, domain.PhoneSortFields)
	if err != nil {
		return nil, err
	}
	f, err := s.filter(caller, p.Search, q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { s.metrics.ObserveStore("numbers.list", time.Since(start)) }()

	total, err := s.store.Phones().CountPhones(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count numbers: %w", err)
	}
	w, pages, err := plan.window(total)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Phones().ListPhones(ctx, f, plan.sort, w)
	if err != nil {
		return nil, fmt.Errorf("list numbers: %w", err)
	}

	span.SetAttributes(attribute.Int("numbers.total", total))
	return &domain.Page[domain.PhoneView]{Items: nonNil(items), Total: total, Pages: pages}, nil
}

// All returns every visible number sorted by number, without paging.
func (s *NumbersService) All(ctx context.Context, caller domain.Caller, companyID string) (*domain.Items[domain.PhoneView], error) {
	ctx, span := numbersTracer.Start(ctx, "NumbersService.All")
	defer span.End()

	items, err := s.all(ctx, caller, companyID)
	if err != nil {
		return nil, err
	}
	return &domain.Items[domain.PhoneView]{Items: items}, nil
}

func (s *NumbersService) all(ctx context.Context, caller domain.Caller, companyID string) ([]domain.PhoneView, error) {
	f, err := s.filter(caller, "", PhoneQuery{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	items, err := s.store.Phones().ListPhones(ctx, f, domain.Sort{Field: "tfn"}, domain.Window{})
	if err != nil {
		return nil, fmt.Errorf("list numbers: %w", err)
	}
	return nonNil(items), nil
}

// Download renders the visible numbers in the upload layout. A Company
// column is added when the result may span several clients.
func (s *NumbersService) Download(ctx context.Context, caller domain.Caller, companyID string, format bulk.Format) (*Export, error) {
	ctx, span := numbersTracer.Start(ctx, "NumbersService.Download")
	defer span.End()

	if format == "" {
		format = bulk.FormatCSV
	}
	if format != bulk.FormatCSV && format != bulk.FormatXLSX {
		return nil, &domain.ErrValidation{Field: "format"}
	}

	items, err := s.all(ctx, caller, companyID)
	if err != nil {
		return nil, err
	}
	withCompany := caller.Elevated && companyID == ""
	span.SetAttributes(attribute.Int("numbers.count", len(items)))

	return &Export{
		Filename: "numbers." + string(format),
		Format:   format,
		Rows:     bulk.ExportMapping(withCompany).Encode(items),
	}, nil
}

// Lookup returns the visible record for a number.
func (s *NumbersService) Lookup(ctx context.Context, caller domain.Caller, tfn string) (*domain.PhoneView, error) {
	ctx, span := numbersTracer.Start(ctx, "NumbersService.Lookup")
	defer span.End()

	if tfn == "" {
		return nil, &domain.ErrValidation{Field: "tfn"}
	}
	view, err := s.store.Phones().GetPhoneView(ctx, domain.PhoneFilter{Scope: caller.Scope()}, tfn)
	if err != nil {
		return nil, fmt.Errorf("get number: %w", err)
	}
	if view == nil {
		return nil, &domain.ErrNotFound{Resource: "Number", ID: tfn}
	}
	return view, nil
}

// owned loads a number and checks that the caller may change it.
func (s *NumbersService) owned(ctx context.Context, repos port.Repositories, caller domain.Caller, id string) (*domain.PhoneNumber, error) {
	if !validation.ID(id) {
		return nil, &domain.ErrValidation{Field: "id", Message: domain.MsgIncorrectID}
	}
	phone, err := repos.Phones().GetPhone(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get number: %w", err)
	}
	if phone == nil {
		return nil, &domain.ErrNotFound{Resource: "Number", ID: id}
	}
	if caller.Elevated {
		return phone, nil
	}
	client, err := repos.Clients().GetClient(ctx, phone.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("get owning client: %w", err)
	}
	if client == nil || !caller.Scope().Matches(client.UserID) {
		return nil, &domain.ErrForbidden{Action: "modify number"}
	}
	return phone, nil
}

// Patch applies a partial update to a number.
func (s *NumbersService) Patch(ctx context.Context, caller domain.Caller, id string, body map[string]any) (*domain.PhoneNumber, error) {
	ctx, span := numbersTracer.Start(ctx, "NumbersService.Patch")
	defer span.End()

	if err := validation.PhonePatchSchema.Validate(body); err != nil {
		return nil, err
	}
	var patch domain.PhonePatch
	if err := decodePatch(body, &patch); err != nil {
		return nil, err
	}

	var phone *domain.PhoneNumber
	err := s.store.WithinTx(ctx, func(tx port.Repositories) error {
		var err error
		phone, err = s.owned(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		patch.Apply(phone, now)
		phone.UpdatedAt = now
		if err := tx.Phones().UpdatePhone(ctx, phone); err != nil {
			return fmt.Errorf("update number: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("number updated", zap.String("number_id", id))
	return phone, nil
}

// Delete removes a number.
func (s *NumbersService) Delete(ctx context.Context, caller domain.Caller, id string) (*domain.MessageResponse, error) {
	ctx, span := numbersTracer.Start(ctx, "NumbersService.Delete")
	defer span.End()

	err := s.store.WithinTx(ctx, func(tx port.Repositories) error {
		if _, err := s.owned(ctx, tx, caller, id); err != nil {
			return err
		}
		if err := tx.Phones().DeletePhone(ctx, id); err != nil {
			return fmt.Errorf("delete number: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("number deleted", zap.String("number_id", id))
	return &domain.MessageResponse{Message: "Number was successfully deleted"}, nil
}

func (s *NumbersService) publish(ctx context.Context, e domain.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("event not published", zap.String("subject", e.Subject), zap.Error(err))
	}
}
