package utils_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/canonsync/internal/utils"
)

const (
	testDiagnosticMessageConstant = "canon scan diagnostic"
	testTimestampKeyConstant      = "ts"
	testStacktraceKeyConstant     = "stacktrace"
)

type capturedStreams struct {
	standardOutput string
	standardError  string
}

func readPipe(testInstance *testing.T, reader *os.File, writer *os.File) string {
	testInstance.Helper()
	require.NoError(testInstance, writer.Close())
	content, readError := io.ReadAll(reader)
	require.NoError(testInstance, readError)
	require.NoError(testInstance, reader.Close())
	return string(bytes.TrimSpace(content))
}

// captureLoggerOutput builds a logger while both standard streams point at pipes, lets emit write
// through it and returns what reached each stream.
func captureLoggerOutput(testInstance *testing.T, level utils.LogLevel, format utils.LogFormat, emit func(*zap.Logger)) capturedStreams {
	testInstance.Helper()

	outputReader, outputWriter, outputPipeError := os.Pipe()
	require.NoError(testInstance, outputPipeError)
	errorReader, errorWriter, errorPipeError := os.Pipe()
	require.NoError(testInstance, errorPipeError)

	originalStdout, originalStderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = outputWriter, errorWriter
	logger, creationError := utils.NewLoggerFactory().CreateLogger(level, format)
	os.Stdout, os.Stderr = originalStdout, originalStderr
	require.NoError(testInstance, creationError)

	emit(logger)
	if syncError := logger.Sync(); syncError != nil {
		require.True(testInstance, errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL) || errors.Is(syncError, syscall.ENOTTY))
	}

	return capturedStreams{
		standardOutput: readPipe(testInstance, outputReader, outputWriter),
		standardError:  readPipe(testInstance, errorReader, errorWriter),
	}
}

func decodeLogLines(testInstance *testing.T, output string) []map[string]any {
	testInstance.Helper()
	entries := make([]map[string]any, 0)
	for _, line := range strings.Split(output, "\n") {
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		var entry map[string]any
		require.NoError(testInstance, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerFactoryStructuredDiagnostics(testInstance *testing.T) {
	streams := captureLoggerOutput(testInstance, utils.LogLevelInfo, utils.LogFormatStructured, func(logger *zap.Logger) {
		logger.Debug("suppressed below info")
		logger.Info(testDiagnosticMessageConstant, zap.String("canon_directory", "governance/canon"))
	})

	require.Empty(testInstance, streams.standardOutput)
	entries := decodeLogLines(testInstance, streams.standardError)
	require.Len(testInstance, entries, 1)
	require.Equal(testInstance, testDiagnosticMessageConstant, entries[0]["msg"])
	require.Equal(testInstance, "governance/canon", entries[0]["canon_directory"])
	require.Contains(testInstance, entries[0], testTimestampKeyConstant)
	require.NotContains(testInstance, entries[0], "time")
}

func TestLoggerFactoryStacktraces(testInstance *testing.T) {
	testCases := []struct {
		name              string
		level             utils.LogLevel
		expectStacktraces bool
	}{
		{name: "debug_keeps_stacktraces", level: utils.LogLevelDebug, expectStacktraces: true},
		{name: "info_suppresses_stacktraces", level: utils.LogLevelInfo, expectStacktraces: false},
		{name: "error_suppresses_stacktraces", level: utils.LogLevelError, expectStacktraces: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			streams := captureLoggerOutput(testInstance, testCase.level, utils.LogFormatStructured, func(logger *zap.Logger) {
				logger.Error(testDiagnosticMessageConstant)
			})

			entries := decodeLogLines(testInstance, streams.standardError)
			require.Len(testInstance, entries, 1)
			if testCase.expectStacktraces {
				require.Contains(testInstance, entries[0], testStacktraceKeyConstant)
			} else {
				require.NotContains(testInstance, entries[0], testStacktraceKeyConstant)
			}
		})
	}
}

func TestLoggerFactoryConsoleDiagnostics(testInstance *testing.T) {
	streams := captureLoggerOutput(testInstance, utils.LogLevel(" WARN "), utils.LogFormat("Console"), func(logger *zap.Logger) {
		logger.Info("suppressed below warn")
		logger.Warn(testDiagnosticMessageConstant)
	})

	require.Empty(testInstance, streams.standardOutput)
	require.Contains(testInstance, streams.standardError, testDiagnosticMessageConstant)
	require.NotContains(testInstance, streams.standardError, "suppressed below warn")
	require.False(testInstance, json.Valid([]byte(streams.standardError)))
}

func TestLoggerFactoryRejectsUnsupportedValues(testInstance *testing.T) {
	testCases := []struct {
		name            string
		level           utils.LogLevel
		format          utils.LogFormat
		expectedMessage string
	}{
		{name: "unsupported_level", level: utils.LogLevel("chatty"), format: utils.LogFormatStructured, expectedMessage: "unsupported log level: chatty"},
		{name: "unsupported_format", level: utils.LogLevelInfo, format: utils.LogFormat("xml"), expectedMessage: "unsupported log format: xml"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			logger, creationError := utils.NewLoggerFactory().CreateLogger(testCase.level, testCase.format)
			require.Nil(testInstance, logger)
			require.EqualError(testInstance, creationError, testCase.expectedMessage)
		})
	}
}

func TestSupportedLogFormats(testInstance *testing.T) {
	require.Equal(testInstance, []string{"structured", "console"}, utils.SupportedLogFormats())
}
