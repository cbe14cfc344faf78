package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vedu111/gorechitee/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidShipment  = errors.New("missing source or destination country information")
	ErrEvaluationFailed = errors.New("an error occurred while processing compliance check")
	ErrRegistryNotSet   = errors.New("jurisdiction registry not set")
)

// DefaultItemConcurrency bounds how many items are evaluated at once
const DefaultItemConcurrency = 4

// ShipmentService evaluates every line item of a shipment against the
// source and destination jurisdictions
type ShipmentService struct {
	registry    *Registry
	concurrency int
	logger      *zap.Logger
}

// ShipmentServiceOption is a functional option for ShipmentService
type ShipmentServiceOption func(*ShipmentService)

// ShipmentWithRegistry sets the jurisdiction registry
func ShipmentWithRegistry(reg *Registry) ShipmentServiceOption {
	return func(s *ShipmentService) {
		s.registry = reg
	}
}

// ShipmentWithConcurrency sets the item fan-out
func ShipmentWithConcurrency(n int) ShipmentServiceOption {
	return func(s *ShipmentService) {
		s.concurrency = n
	}
}

// ShipmentWithLogger sets the logger
func ShipmentWithLogger(logger *zap.Logger) ShipmentServiceOption {
	return func(s *ShipmentService) {
		s.logger = logger
	}
}

// NewShipmentService creates a new shipment service
func NewShipmentService(opts ...ShipmentServiceOption) *ShipmentService {
	s := &ShipmentService{
		concurrency: DefaultItemConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	return s
}

// Registry returns the jurisdiction registry the service evaluates against
func (s *ShipmentService) Registry() *Registry {
	return s.registry
}

// route is the pair of adapters an item travels between. A nil adapter marks
// an unsupported country.
type route struct {
	source      string
	destination string
	exporter    Jurisdiction
	importer    Jurisdiction
}

// EvaluateShipment produces one report per item, in declaration order, and a summary.
// Item failures become rejections; only an invalid request or an internal fault
// fails the whole call.
func (s *ShipmentService) EvaluateShipment(ctx context.Context, shipment models.Shipment) (*models.ShipmentResult, error) {
	if s.registry == nil {
		return nil, ErrRegistryNotSet
	}

	rt := route{
		source:      strings.ToUpper(strings.TrimSpace(shipment.SourceAddress.Country)),
		destination: strings.ToUpper(strings.TrimSpace(shipment.DestinationAddress.Country)),
	}
	if rt.source == "" || rt.destination == "" {
		return nil, ErrInvalidShipment
	}
	rt.exporter, _ = s.registry.Lookup(rt.source)
	rt.importer, _ = s.registry.Lookup(rt.destination)

	evaluationID := uuid.New()
	logger := s.logger.With(
		zap.String("evaluationId", evaluationID.String()),
		zap.String("source", rt.source),
		zap.String("destination", rt.destination))

	items := shipment.Items()
	report := make([]models.ItemReport, len(items))
	logger.Info("evaluating shipment", zap.Int("items", len(items)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, item := range items {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("item evaluation panicked", zap.Int("item", i), zap.Any("panic", r))
					err = fmt.Errorf("%w: item %d: %v", ErrEvaluationFailed, i, r)
				}
			}()
			report[i] = s.evaluateItem(gctx, rt, item, logger.With(zap.Int("item", i)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &models.ShipmentResult{
		Status: true,
		Summary: models.ShipmentSummary{
			OrganizationName:   shipment.OrganizationName,
			SourceCountry:      orNotSpecified(shipment.SourceAddress.Country),
			DestinationCountry: orNotSpecified(shipment.DestinationAddress.Country),
			ShipmentDate:       shipment.ShipmentDate,
			TotalItems:         len(report),
		},
		Report: report,
	}
	for _, r := range report {
		if r.Status {
			result.Summary.ApprovedItems++
		} else {
			result.Summary.RejectedItems++
			result.Status = false
		}
	}

	logger.Info("shipment evaluated",
		zap.Bool("status", result.Status),
		zap.Int("approved", result.Summary.ApprovedItems),
		zap.Int("rejected", result.Summary.RejectedItems))
	return result, nil
}

type itemState int

const (
	stateResolveCode itemState = iota
	stateExportCheck
	stateImportCheck
	stateApproved
	stateRejected
)

func (st itemState) String() string {
	switch st {
	case stateResolveCode:
		return "resolve_code"
	case stateExportCheck:
		return "export_check"
	case stateImportCheck:
		return "import_check"
	case stateApproved:
		return "approved"
	case stateRejected:
		return "rejected"
	}
	return "unknown"
}

// evaluateItem drives one item through resolve, export and import. Each stage
// either advances or rejects; a rejected item is never checked further.
func (s *ShipmentService) evaluateItem(ctx context.Context, rt route, item models.Item, logger *zap.Logger) models.ItemReport {
	rep := models.ItemReport{
		ItemName:         item.ItemName,
		ItemManufacturer: orNotSpecified(item.ItemManufacturer),
		Material:         orNotSpecified(item.Material),
		ItemWeight:       orNotSpecified(item.ItemWeight),
	}

	state := stateResolveCode
	var previous itemState
	for state != stateApproved && state != stateRejected {
		previous = state
		switch state {
		case stateResolveCode:
			state = s.resolveCode(ctx, rt, item, &rep)
		case stateExportCheck:
			state = s.checkExport(ctx, rt, item, &rep)
		case stateImportCheck:
			state = s.checkImport(ctx, rt, item, &rep)
		}
	}

	if state == stateApproved {
		rep.Status = true
		rep.Message = fmt.Sprintf("Eligible for export from %s and import into %s", rt.source, rt.destination)
		return rep
	}

	rep.Status = false
	logger.Info("item rejected",
		zap.String("itemName", item.ItemName),
		zap.String("hsCode", rep.HSCode),
		zap.Stringer("stage", previous))
	return rep
}

func (s *ShipmentService) resolveCode(ctx context.Context, rt route, item models.Item, rep *models.ItemReport) itemState {
	if code := strings.TrimSpace(item.HSCode); code != "" {
		rep.HSCode = code
		return stateExportCheck
	}
	if rt.exporter == nil {
		return stateExportCheck
	}

	res, err := rt.exporter.ResolveCode(ctx, item.ItemName, "")
	if err != nil {
		rep.ExportStatus = false
		rep.Reason = "Error determining HS code"
		return stateRejected
	}
	if !res.Resolved() {
		rep.ExportStatus = false
		rep.Reason = orDefault(res.Reason, "HS Code could not be determined")
		return stateRejected
	}

	rep.HSCode = res.Code
	rep.HSCodeNote = orDefault(res.Note, "Generated from item name")
	return stateExportCheck
}

func (s *ShipmentService) checkExport(ctx context.Context, rt route, item models.Item, rep *models.ItemReport) itemState {
	if rt.exporter == nil {
		rep.ExportStatus = false
		rep.ExportReason = fmt.Sprintf("Export compliance check not implemented for %s", rt.source)
		return stateRejected
	}

	v, err := rt.exporter.EvaluateExport(ctx, itemQuery(item, rep.HSCode))
	if err != nil {
		rep.ExportStatus = false
		rep.ExportReason = fmt.Sprintf("Error checking export compliance from %s: %v", rt.source, err)
		return stateRejected
	}

	rep.ExportStatus = v.Status
	if !v.Status {
		rep.ExportReason = orDefault(v.Reason, fmt.Sprintf("Not eligible for export from %s", rt.source))
		return stateRejected
	}

	rep.ExportPolicy = orDefault(v.Policy, "Allowed")
	rep.ExportDescription = orDefault(v.Description, "Standard export")
	rep.ExportConditions = v.Conditions
	return stateImportCheck
}

func (s *ShipmentService) checkImport(ctx context.Context, rt route, item models.Item, rep *models.ItemReport) itemState {
	if rt.importer == nil {
		rep.ImportStatus = false
		rep.ImportReason = fmt.Sprintf("Import compliance check not implemented for %s", rt.destination)
		return stateRejected
	}

	v, err := rt.importer.EvaluateImport(ctx, itemQuery(item, rep.HSCode))
	if err != nil {
		rep.ImportStatus = false
		rep.ImportReason = fmt.Sprintf("Error checking import compliance for %s: %v", rt.destination, err)
		return stateRejected
	}

	rep.ImportStatus = v.Status
	if !v.Status {
		rep.ImportReason = orDefault(v.Reason, fmt.Sprintf("Not allowed for import in %s", rt.destination))
		return stateRejected
	}

	rep.ImportPolicy = orDefault(v.Policy, "Allowed")
	rep.ImportDescription = orDefault(v.Description, "Standard import")
	rep.ImportNote = v.Note
	return stateApproved
}

func itemQuery(item models.Item, code string) models.ItemQuery {
	return models.ItemQuery{
		HSCode:          code,
		ItemName:        item.ItemName,
		ItemDescription: item.ItemName,
		ItemWeight:      item.ItemWeight,
		Material:        item.Material,
		Manufacturer:    item.ItemManufacturer,
	}
}

func orNotSpecified(s string) string {
	return orDefault(s, models.NotSpecified)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
