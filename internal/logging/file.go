package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWriter writes log messages to a session log file.
// It always logs all levels regardless of console settings.
type FileWriter struct {
	mu       sync.Mutex
	file     *os.File
	logDir   string
	logPath  string
	initOnce sync.Once
	initErr  error
}

// NewFileWriter creates a new file writer.
// Initialization is lazy - the directory and file are only created on first write.
func NewFileWriter(logDir string) *FileWriter {
	return &FileWriter{
		logDir: logDir,
	}
}

func (f *FileWriter) init() error {
	f.initOnce.Do(func() {
		f.initErr = f.doInit()
	})
	return f.initErr
}

func (f *FileWriter) doInit() error {
	if f.logDir == "" {
		return nil
	}

	logDir, err := filepath.Abs(f.logDir)
	if err != nil {
		return fmt.Errorf("resolve log directory: %w", err)
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("usagecal_%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}

	f.file = file
	f.logPath = logPath

	_, _ = fmt.Fprintf(file, "=== Run started at %s (pid %d) ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())

	// Create/update symlink to latest log
	latestPath := filepath.Join(logDir, "latest.log")
	_ = os.Remove(latestPath)
	_ = os.Symlink(filepath.Base(logPath), latestPath)

	return nil
}

// Write writes a log message to the file.
// All levels are written regardless of any level settings.
func (f *FileWriter) Write(level Level, prefix, msg string, fields ...Field) error {
	if err := f.init(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	_, err := io.WriteString(f.file, formatLine(time.Now(), level, prefix, msg, fields))
	return err
}

// GetPath returns the path to the current log file.
// Returns empty string if not initialized.
func (f *FileWriter) GetPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logPath
}

// Close closes the file writer.
func (f *FileWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file != nil {
		_, _ = fmt.Fprintf(f.file, "=== Run ended at %s ===\n", time.Now().Format("2006-01-02 15:04:05"))
		err := f.file.Close()
		f.file = nil
		return err
	}
	return nil
}
