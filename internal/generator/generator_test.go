package generator_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/canonsync/internal/faults"
	"github.com/temirov/canonsync/internal/generator"
	"github.com/temirov/canonsync/internal/inventory"
	"github.com/temirov/canonsync/internal/utils"
)

const (
	abcFullDigestConstant = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	priorInventoryContent = `{
  "version": "1.0.0",
  "canons": [
    {"filename": "A.md", "file_hash": "000000000000", "type": "canon", "path": "governance/canon/A.md", "layer_down_status": "OPTIONAL"}
  ]
}`
	publicCanonContent = "# B\n\n**Version**: 1.2.0\n**Layer-Down Status**: PUBLIC_API\n\n## 1. Purpose\n\nDefines B. More.\n\n"
)

type fixedClock struct {
	instant time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.instant
}

func writeDocument(testInstance *testing.T, root string, relativePath string, content string) {
	testInstance.Helper()
	absolutePath := filepath.Join(root, filepath.FromSlash(relativePath))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
	require.NoError(testInstance, os.WriteFile(absolutePath, []byte(content), 0o644))
}

func buildGovernanceTree(testInstance *testing.T) string {
	testInstance.Helper()
	root := testInstance.TempDir()
	writeDocument(testInstance, root, "governance/canon/B.md", publicCanonContent)
	writeDocument(testInstance, root, "governance/canon/A.md", "abc")
	writeDocument(testInstance, root, "governance/canon/.draft.md", "hidden")
	writeDocument(testInstance, root, "governance/canon/notes.txt", "ignored")
	writeDocument(testInstance, root, "governance/canon/sub/C.md", "**Version**: 3.0\n")
	writeDocument(testInstance, root, "governance/policy/P.md", "**Layer-Down Status**: OPTIONAL\n")
	return root
}

func newTestLoader(testInstance *testing.T) *inventory.Loader {
	testInstance.Helper()
	loader, loaderError := inventory.NewLoader()
	require.NoError(testInstance, loaderError)
	return loader
}

func TestGenerateBuildsRecordsWithOverlay(testInstance *testing.T) {
	root := buildGovernanceTree(testInstance)
	writeDocument(testInstance, root, inventory.InventoryRelativePathConstant, priorInventoryContent)

	clock := fixedClock{instant: time.Date(2026, time.March, 4, 10, 20, 30, 0, time.UTC)}
	centralInventory, generateError := generator.NewGenerator(newTestLoader(testInstance), clock, zap.NewNop()).Generate(root, inventory.InventoryPath(root))
	require.NoError(testInstance, generateError)

	require.Equal(testInstance, generator.GeneratedInventoryVersionConstant, centralInventory.Version)
	require.Equal(testInstance, "2026-03-04", centralInventory.LastUpdated)
	require.Equal(testInstance, "2026-03-04T10:20:30Z", centralInventory.GenerationTimestamp)
	require.Equal(testInstance, 4, centralInventory.TotalCanons)

	paths := make([]string, 0, len(centralInventory.Canons))
	for _, record := range centralInventory.Canons {
		paths = append(paths, record.Path)
	}
	require.Equal(testInstance, []string{
		"governance/canon/A.md",
		"governance/canon/B.md",
		"governance/canon/sub/C.md",
		"governance/policy/P.md",
	}, paths)

	require.Equal(testInstance, inventory.CanonRecord{
		Filename:               "A.md",
		Version:                "unknown",
		TruncatedFingerprint:   abcFullDigestConstant[:12],
		EffectiveDate:          "unknown",
		Description:            "Canonical governance document: A",
		EntryType:              inventory.EntryTypeCanon,
		Path:                   "governance/canon/A.md",
		LayeringClassification: inventory.LayeringOptional,
		FullFingerprint:        abcFullDigestConstant,
	}, centralInventory.Canons[0])

	publicRecord := centralInventory.Canons[1]
	require.Equal(testInstance, "1.2.0", publicRecord.Version)
	require.Equal(testInstance, "Defines B", publicRecord.Description)
	require.Equal(testInstance, inventory.LayeringPublicAPI, publicRecord.LayeringClassification)

	require.Equal(testInstance, "3.0", centralInventory.Canons[2].Version)
	require.Equal(testInstance, inventory.LayeringInternal, centralInventory.Canons[2].LayeringClassification)

	policyRecord := centralInventory.Canons[3]
	require.Equal(testInstance, inventory.EntryTypePolicy, policyRecord.EntryType)
	require.Equal(testInstance, inventory.LayeringOptional, policyRecord.LayeringClassification)

	require.Equal(testInstance, generator.LayeringTally{PublicAPI: 1, Internal: 1, Optional: 2}, generator.Tally(centralInventory))
}

func TestGenerateIgnoresUnreadablePriorInventory(testInstance *testing.T) {
	root := buildGovernanceTree(testInstance)
	writeDocument(testInstance, root, inventory.InventoryRelativePathConstant, "{not json")

	observedCore, observedLogs := observer.New(zapcore.WarnLevel)
	centralInventory, generateError := generator.NewGenerator(newTestLoader(testInstance), nil, zap.New(observedCore)).Generate(root, inventory.InventoryPath(root))
	require.NoError(testInstance, generateError)
	require.Equal(testInstance, inventory.LayeringInternal, centralInventory.Canons[0].LayeringClassification)
	require.Equal(testInstance, 1, observedLogs.Len())
}

func TestGenerateWithoutGovernanceDirectories(testInstance *testing.T) {
	centralInventory, generateError := generator.NewGenerator(nil, nil, nil).Generate(testInstance.TempDir(), "")
	require.NoError(testInstance, generateError)
	require.Equal(testInstance, 0, centralInventory.TotalCanons)
	require.NotNil(testInstance, centralInventory.Canons)
}

func TestRegenerateCommandWritesLoadableInventory(testInstance *testing.T) {
	root := buildGovernanceTree(testInstance)
	builder := generator.CommandBuilder{
		Clock: fixedClock{instant: time.Date(2026, time.March, 4, 10, 20, 30, 0, time.UTC)},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	var outputBuffer bytes.Buffer
	command.SetOut(&outputBuffer)
	command.SetArgs([]string{"--root", root})
	require.NoError(testInstance, command.Execute())

	loaded, loadError := newTestLoader(testInstance).Load(inventory.InventoryPath(root))
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, 4, loaded.TotalCanons)
	require.Len(testInstance, loaded.CanonEntries(), 3)

	output := outputBuffer.String()
	require.Contains(testInstance, output, "Total canons: 4\n")
	require.Contains(testInstance, output, "  PUBLIC_API: 1\n  INTERNAL:   2\n  OPTIONAL:   1\n")
	require.True(testInstance, strings.HasPrefix(output, strings.Repeat("=", 70)+"\nCANON_INVENTORY.json Regeneration\n"))
}

func TestGenerateRejectsCanonsSharingAFilename(testInstance *testing.T) {
	root := testInstance.TempDir()
	writeDocument(testInstance, root, "governance/canon/alpha/README.md", "alpha")
	writeDocument(testInstance, root, "governance/canon/beta/README.md", "beta")
	writeDocument(testInstance, root, "governance/policy/README.md", "policy")

	_, generateError := generator.NewGenerator(newTestLoader(testInstance), nil, nil).Generate(root, inventory.InventoryPath(root))
	require.ErrorIs(testInstance, generateError, faults.ErrMalformed)
	require.Contains(testInstance, generateError.Error(), filepath.Join(root, "governance", "canon", "beta", "README.md"))
	require.Contains(testInstance, generateError.Error(), "governance/canon/alpha/README.md")
}

func TestRegenerateCommandFailsOnCanonsSharingAFilename(testInstance *testing.T) {
	root := testInstance.TempDir()
	writeDocument(testInstance, root, "governance/canon/alpha/README.md", "alpha")
	writeDocument(testInstance, root, "governance/canon/beta/README.md", "beta")

	command, buildError := (&generator.CommandBuilder{}).Build()
	require.NoError(testInstance, buildError)
	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SilenceUsage = true
	command.SilenceErrors = true
	command.SetArgs([]string{"--root", root})

	executionError := command.Execute()
	require.Equal(testInstance, generator.FailureExitCodeConstant, utils.ExitCodeFor(executionError))
	require.True(testInstance, utils.ShouldReport(executionError))
	require.NoFileExists(testInstance, inventory.InventoryPath(root))
}

func TestRegeneratePreservesEditedClassifications(testInstance *testing.T) {
	root := testInstance.TempDir()
	writeDocument(testInstance, root, "governance/canon/alpha/ALPHA.md", "alpha")
	writeDocument(testInstance, root, "governance/canon/beta/BETA.md", "**Layer-Down Status**: OPTIONAL\n")
	loader := newTestLoader(testInstance)
	inventoryPath := inventory.InventoryPath(root)

	firstRun, generateError := generator.NewGenerator(loader, nil, nil).Generate(root, inventoryPath)
	require.NoError(testInstance, generateError)
	firstRun.Canons[0].LayeringClassification = inventory.LayeringPublicAPI
	firstRun.Canons[1].LayeringClassification = inventory.LayeringClassification("EXPERIMENTAL")
	require.NoError(testInstance, generator.WriteInventory(inventoryPath, firstRun))

	loaded, loadError := loader.Load(inventoryPath)
	require.NoError(testInstance, loadError)
	require.Len(testInstance, loaded.CanonEntries(), 2)

	secondRun, regenerateError := generator.NewGenerator(loader, nil, nil).Generate(root, inventoryPath)
	require.NoError(testInstance, regenerateError)
	require.Equal(testInstance, "governance/canon/alpha/ALPHA.md", secondRun.Canons[0].Path)
	require.Equal(testInstance, inventory.LayeringPublicAPI, secondRun.Canons[0].LayeringClassification)
	require.Equal(testInstance, inventory.LayeringClassification("EXPERIMENTAL"), secondRun.Canons[1].LayeringClassification)
}

func TestGenerateOverlayReadsInventoriesTheLoaderRejects(testInstance *testing.T) {
	root := testInstance.TempDir()
	writeDocument(testInstance, root, "governance/canon/alpha/README.md", "alpha")
	writeDocument(testInstance, root, inventory.InventoryRelativePathConstant, `{"canons": [
    {"filename": "README.md", "file_hash": "a", "type": "canon", "path": "governance/canon/alpha/README.md", "layer_down_status": "PUBLIC_API"},
    {"filename": "README.md", "file_hash": "b", "type": "canon", "path": "governance/canon/beta/README.md", "layer_down_status": "OPTIONAL"}
  ]}`)

	observedCore, observedLogs := observer.New(zapcore.WarnLevel)
	centralInventory, generateError := generator.NewGenerator(newTestLoader(testInstance), nil, zap.New(observedCore)).Generate(root, inventory.InventoryPath(root))
	require.NoError(testInstance, generateError)
	require.Equal(testInstance, inventory.LayeringPublicAPI, centralInventory.Canons[0].LayeringClassification)
	require.Equal(testInstance, 0, observedLogs.Len())
}

func TestGenerateKeepsHeaderClassificationWhenPriorEntryHasNone(testInstance *testing.T) {
	root := testInstance.TempDir()
	writeDocument(testInstance, root, "governance/canon/B.md", publicCanonContent)
	writeDocument(testInstance, root, inventory.InventoryRelativePathConstant, `{"canons": [
    {"filename": "B.md", "file_hash": "000000000000", "type": "canon", "path": "governance/canon/B.md"}
  ]}`)

	centralInventory, generateError := generator.NewGenerator(newTestLoader(testInstance), nil, nil).Generate(root, inventory.InventoryPath(root))
	require.NoError(testInstance, generateError)
	require.Equal(testInstance, inventory.LayeringPublicAPI, centralInventory.Canons[0].LayeringClassification)
}
