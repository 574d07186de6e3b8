package core

import (
	"context"
	"log/slog"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"

	"github.com/JonMunkholm/epcgen/internal/epc"
	"github.com/JonMunkholm/epcgen/internal/logging"
	"github.com/JonMunkholm/epcgen/internal/metrics"
	"github.com/JonMunkholm/epcgen/internal/schema"
)

// Options configures a Service.
type Options struct {
	Resolver *schema.Resolver
	Tables   epc.Tables
	Logger   *slog.Logger
	Metrics  *metrics.Registry

	// EventTimePolicy picks the event time of a merged group.
	EventTimePolicy TimePolicy

	// Grouping derives the group key of "to" rows from their purchase order.
	Grouping Grouping

	// NewID generates event and transformation ids. Defaults to random
	// urn:uuid URNs.
	NewID func() string
}

// Service builds event contexts from spreadsheet records. It holds no
// per-run state; every call works only on its arguments.
type Service struct {
	resolver *schema.Resolver
	ids      *epc.Normalizer
	log      *slog.Logger
	metrics  *metrics.Registry
	policy   TimePolicy
	grouping Grouping
	newID    func() string
}

// NewService creates a service from opts, filling in defaults.
func NewService(opts Options) *Service {
	log := logging.OrDefault(opts.Logger)

	resolver := opts.Resolver
	if resolver == nil {
		resolver = schema.NewResolver()
	}

	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.New().URN() }
	}

	return &Service{
		resolver: resolver,
		ids: &epc.Normalizer{
			Tables:  opts.Tables,
			Logger:  log,
			Metrics: opts.Metrics,
		},
		log:      log,
		metrics:  opts.Metrics,
		policy:   opts.EventTimePolicy,
		grouping: opts.Grouping,
		newID:    newID,
	}
}

// Simple builds one context per record.
func (s *Service) Simple(recs []schema.Record) []Context {
	s.warnColumns("simple", recs, simpleFields)
	contexts := make([]Context, 0, len(recs))
	for i, rec := range recs {
		log := logging.WithFields(s.log, "row", schema.SheetRow(i))
		c := s.SimpleContext(s.resolver.Row(rec), log)
		s.built(c, metrics.ModeSimple, log)
		contexts = append(contexts, c)
	}
	return contexts
}

// Transform builds one transformation context per purchase order.
//
// The "to" records are grouped by purchase order, the PO intervals are
// derived from them, and every "from" record is assigned to the interval
// holding its timestamp. Interval construction finishes before any
// assignment starts.
func (s *Service) Transform(fromRecs, toRecs []schema.Record) []Context {
	s.warnColumns("from", fromRecs, fromFields)
	s.warnColumns("to", toRecs, toFields)
	toGroups := s.GroupRows(s.resolver.Rows(toRecs), schema.PurchaseOrder)
	intervals := s.BuildIntervals(toGroups)
	fromGroups := s.AssignRows(s.resolver.Rows(fromRecs), intervals)
	return s.Merge(fromGroups, toGroups)
}

// Merge builds one context per group key found in either from or to.
func (s *Service) Merge(from, to Groups) []Context {
	keys := unionKeys(from, to)
	contexts := make([]Context, 0, len(keys))
	for _, key := range keys {
		log := logging.WithFields(s.log, "group", key)
		c := s.MergeGroup(from[key], to[key], log)
		s.built(c, metrics.ModeTransformation, log)
		contexts = append(contexts, c)
	}
	return contexts
}

func (s *Service) built(c Context, mode string, log *slog.Logger) {
	s.metrics.ContextBuilt(mode)
	if log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("context built", "event_id", c.EventID, "context", spew.Sdump(c))
	}
}
