package canonsync

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/canonsync/internal/inventory"
	"github.com/temirov/canonsync/internal/reconcile"
	"github.com/temirov/canonsync/internal/report"
	"github.com/temirov/canonsync/internal/scanner"
	"github.com/temirov/canonsync/internal/utils"
)

const (
	// LoadFailureExitCodeConstant is returned when an input cannot be loaded or a snapshot cannot be written.
	LoadFailureExitCodeConstant = 2
	// IncompleteCoverageExitCodeConstant is returned in strict mode when coverage is below 100%.
	IncompleteCoverageExitCodeConstant = 1

	missingDependencyTemplateConstant = "canon sync dependency %s not configured"

	inventoryLoadedMessageConstant   = "Central inventory loaded"
	localScanMessageConstant         = "Local canons scanned"
	snapshotWrittenMessageConstant   = "Compliance snapshot written"
	loadFailedMessageConstant        = "Canon sync aborted"
	logFieldInventoryPathConstant    = "inventory_path"
	logFieldInventoryVersionConstant = "inventory_version"
	logFieldCanonCountConstant       = "canon_entries"
	logFieldObservedCountConstant    = "observed_canons"
	logFieldOutputPathConstant       = "output_path"
	logFieldCoverageConstant         = "coverage_percentage"
	logFieldRepositoryConstant       = "repository"
)

// InventoryLoader reads the central canon inventory.
type InventoryLoader interface {
	Load(inventoryPath string) (inventory.CentralInventory, error)
}

// CanonScanner enumerates local canon files.
type CanonScanner interface {
	Scan(executionContext context.Context, repositoryRoot string) (scanner.Observations, error)
}

// IdentityResolver determines owner/repository identities.
type IdentityResolver interface {
	ResolveIdentity(executionContext context.Context, explicitIdentity string, repositoryPath string) string
}

// Clock abstracts time-dependent functionality for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard library.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Options describes a single sync run with every path already resolved.
type Options struct {
	RepositoryRoot       string
	GovernanceSource     string
	GovernanceSourceName string
	RepositoryName       string
	OutputPath           string
	Strict               bool
	Policy               reconcile.MandatoryPolicy
}

// Result reports what a sync run produced.
type Result struct {
	Document report.Document
	Snapshot reconcile.ComplianceSnapshot
}

// Service orchestrates loading, scanning, reconciling and reporting for one repository.
type Service struct {
	loader           InventoryLoader
	scanner          CanonScanner
	identityResolver IdentityResolver
	clock            Clock
	reporter         *report.TextReporter
	logger           *zap.Logger
}

// Dependencies groups the collaborators of a Service.
type Dependencies struct {
	Loader           InventoryLoader
	Scanner          CanonScanner
	IdentityResolver IdentityResolver
	Clock            Clock
	OutputWriter     io.Writer
	Logger           *zap.Logger
}

// NewService constructs a Service using the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Loader == nil {
		return nil, fmt.Errorf(missingDependencyTemplateConstant, "inventory loader")
	}
	if dependencies.Scanner == nil {
		return nil, fmt.Errorf(missingDependencyTemplateConstant, "canon scanner")
	}
	if dependencies.IdentityResolver == nil {
		return nil, fmt.Errorf(missingDependencyTemplateConstant, "identity resolver")
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		loader:           dependencies.Loader,
		scanner:          dependencies.Scanner,
		identityResolver: dependencies.IdentityResolver,
		clock:            clock,
		reporter:         report.NewTextReporter(dependencies.OutputWriter),
		logger:           logger,
	}, nil
}

// Run executes one sync. Load and write failures abort before any snapshot is produced and carry
// exit status 2; incomplete coverage in strict mode carries exit status 1 after the snapshot is written.
func (service *Service) Run(executionContext context.Context, options Options) (Result, error) {
	if renderError := service.reporter.RenderRunHeader(report.RunHeader{
		RepositoryRoot:   options.RepositoryRoot,
		GovernanceSource: options.GovernanceSource,
		OutputPath:       options.OutputPath,
	}); renderError != nil {
		return Result{}, renderError
	}

	inventoryPath := inventory.InventoryPath(options.GovernanceSource)
	centralInventory, loadError := service.loader.Load(inventoryPath)
	if loadError != nil {
		return Result{}, service.abort(loadError)
	}
	canonEntries := centralInventory.CanonEntries()
	service.logger.Info(inventoryLoadedMessageConstant,
		zap.String(logFieldInventoryPathConstant, inventoryPath),
		zap.String(logFieldInventoryVersionConstant, centralInventory.VersionOrDefault()),
		zap.Int(logFieldCanonCountConstant, len(canonEntries)),
	)

	observations, scanError := service.scanner.Scan(executionContext, options.RepositoryRoot)
	if scanError != nil {
		return Result{}, service.abort(scanError)
	}
	service.logger.Info(localScanMessageConstant, zap.Int(logFieldObservedCountConstant, len(observations)))

	repositoryName := service.identityResolver.ResolveIdentity(executionContext, options.RepositoryName, options.RepositoryRoot)
	governanceSourceName := service.identityResolver.ResolveIdentity(executionContext, options.GovernanceSourceName, options.GovernanceSource)

	snapshot := reconcile.Reconcile(canonEntries, observations, options.Policy)
	document := report.NewDocument(report.Metadata{
		Repository:       repositoryName,
		SyncDate:         service.clock.Now().Format(report.SyncDateLayoutConstant),
		GovernanceSource: governanceSourceName,
		InventoryVersion: centralInventory.VersionOrDefault(),
	}, snapshot)

	if writeError := report.WriteFile(options.OutputPath, document); writeError != nil {
		return Result{}, service.abort(writeError)
	}
	service.logger.Info(snapshotWrittenMessageConstant,
		zap.String(logFieldOutputPathConstant, options.OutputPath),
		zap.String(logFieldRepositoryConstant, repositoryName),
		zap.Float64(logFieldCoverageConstant, snapshot.CoveragePercentage),
	)

	result := Result{Document: document, Snapshot: snapshot}
	if renderError := service.renderReport(options, document, snapshot.Complete()); renderError != nil {
		return result, renderError
	}

	if !snapshot.Complete() && options.Strict {
		return result, utils.NewExitStatusError(IncompleteCoverageExitCodeConstant, nil)
	}
	return result, nil
}

func (service *Service) renderReport(options Options, document report.Document, complete bool) error {
	if renderError := service.reporter.RenderSaved(options.OutputPath); renderError != nil {
		return renderError
	}
	if renderError := service.reporter.RenderCompliance(document); renderError != nil {
		return renderError
	}
	return service.reporter.RenderOutcome(report.Outcome{Complete: complete, Strict: options.Strict})
}

func (service *Service) abort(failure error) error {
	service.logger.Error(loadFailedMessageConstant, zap.Error(failure))
	return utils.NewExitStatusError(LoadFailureExitCodeConstant, failure)
}
