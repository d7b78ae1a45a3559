package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
)

func TestLoggerWritesLevelFilteredRecords(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	t.Cleanup(CloseLogFiles)

	g.Expect(InitGlobalLoggers(path, "info")).To(Succeed())
	Info("switched to %s", "tor")
	Debug("hidden %d", 42)
	CloseLogFiles()

	data, err := os.ReadFile(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(data)).To(ContainSubstring("switched to tor"))
	g.Expect(string(data)).To(ContainSubstring("run=" + RunID()))
	g.Expect(string(data)).NotTo(ContainSubstring("hidden 42"))
}

func TestLoggerDiscardsWhenPathUnusable(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	g.Expect(os.WriteFile(blocker, nil, 0644)).To(Succeed())
	t.Cleanup(CloseLogFiles)

	g.Expect(InitGlobalLoggers(filepath.Join(blocker, "app.log"), "DEBUG")).To(Succeed())
	g.Expect(func() { Info("still fine") }).NotTo(Panic())
}

func TestErrorGoesOnlyToLogFile(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "app.log")
	var stderr bytes.Buffer
	SetErrorOutput(&stderr)
	t.Cleanup(func() {
		CloseLogFiles()
		SetErrorOutput(nil)
	})

	g.Expect(InitGlobalLoggers(path, "INFO")).To(Succeed())
	Error("failed to write %s", "config")
	CloseLogFiles()

	data, err := os.ReadFile(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(data)).To(ContainSubstring("level=error"))
	g.Expect(string(data)).To(ContainSubstring("failed to write config"))
	g.Expect(stderr.String()).To(BeEmpty())
}

func TestFatalRecordsClosesAndExits(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "app.log")
	var stderr bytes.Buffer
	SetErrorOutput(&stderr)
	t.Cleanup(func() {
		CloseLogFiles()
		SetErrorOutput(nil)
	})

	g.Expect(InitGlobalLoggers(path, "INFO")).To(Succeed())
	exitCode := -1
	ErrorLogger.ExitFunc = func(code int) { exitCode = code }

	Fatal("Panic recovered in main: %v", "boom")

	g.Expect(exitCode).To(Equal(1))
	g.Expect(stderr.String()).To(ContainSubstring("Panic recovered in main: boom"))
	g.Expect(appLogFile).To(BeNil())

	data, err := os.ReadFile(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(data)).To(ContainSubstring("Panic recovered in main: boom"))
}
