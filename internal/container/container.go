// Package container provides dependency injection for the txn-recon
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"fmt"

	"fjacquet/txn-recon/internal/audit"
	"fjacquet/txn-recon/internal/batch"
	"fjacquet/txn-recon/internal/config"
	"fjacquet/txn-recon/internal/dedupe"
	"fjacquet/txn-recon/internal/export"
	"fjacquet/txn-recon/internal/logging"
	"fjacquet/txn-recon/internal/normalizer"
	"fjacquet/txn-recon/internal/reconcile"
	"fjacquet/txn-recon/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation. All fields are private and only
// reachable through getter methods.
type Container struct {
	logger logging.Logger
	config *config.Config

	aliases    normalizer.AliasTable
	aliasStore *store.AliasStore
	auditRepo  store.AuditRepository

	deduper    *dedupe.Deduper
	applier    *audit.Applier
	matcher    *reconcile.Matcher
	bulk       *reconcile.BulkEngine
	exporter   *export.Exporter
	aggregator *batch.Aggregator
}

// NewContainer creates and wires all application dependencies, logging
// through a logrus adapter configured from cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	logger := logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))
	return NewContainerWithLogger(cfg, logger)
}

// NewContainerWithLogger wires dependencies around an existing logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	aliasStore := store.NewAliasStore(cfg.Dedupe.AliasesFile, logger)
	aliases, err := aliasStore.LoadAliases()
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor aliases: %w", err)
	}

	deduper, err := dedupe.NewDeduper(cfg.DedupeSettings(aliases), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create deduper: %w", err)
	}

	matcher, err := reconcile.NewMatcher(cfg.ReconcileSettings(), aliases, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create matcher: %w", err)
	}

	c := &Container{
		logger:     logger,
		config:     cfg,
		aliases:    aliases,
		aliasStore: aliasStore,
		auditRepo:  store.NewAuditStore(cfg.Audit.Directory, logger),
		deduper:    deduper,
		applier:    audit.NewApplier(logger),
		matcher:    matcher,
		bulk:       reconcile.NewBulkEngine(matcher, cfg.Reconcile.BulkWorkers, logger),
		exporter:   export.NewExporter(aliases),
		aggregator: batch.NewAggregator(cfg.Delimiter(), deduper, logger),
	}

	logger.Debug("Container initialized successfully",
		logging.F("aliases", aliases.Len()),
		logging.F(logging.FieldWorkers, cfg.Reconcile.BulkWorkers))

	return c, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger { return c.logger }

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config { return c.config }

// GetAliases returns the vendor alias table in effect.
func (c *Container) GetAliases() normalizer.AliasTable { return c.aliases }

// GetAliasStore returns the alias file store.
func (c *Container) GetAliasStore() *store.AliasStore { return c.aliasStore }

// GetAuditRepository returns where audit logs are persisted.
func (c *Container) GetAuditRepository() store.AuditRepository { return c.auditRepo }

// GetDeduper returns the duplicate grouper.
func (c *Container) GetDeduper() *dedupe.Deduper { return c.deduper }

// GetApplier returns the audit log builder.
func (c *Container) GetApplier() *audit.Applier { return c.applier }

// GetMatcher returns the two-ledger matcher.
func (c *Container) GetMatcher() *reconcile.Matcher { return c.matcher }

// GetBulkEngine returns the multi-client reconciliation engine.
func (c *Container) GetBulkEngine() *reconcile.BulkEngine { return c.bulk }

// GetExporter returns the export adapter.
func (c *Container) GetExporter() *export.Exporter { return c.exporter }

// GetAggregator returns the ledger file aggregator.
func (c *Container) GetAggregator() *batch.Aggregator { return c.aggregator }

// Close performs cleanup of container resources.
func (c *Container) Close() error {
	c.logger.Debug("Container closed")
	return nil
}
