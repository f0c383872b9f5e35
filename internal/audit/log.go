// Package audit keeps a tamper-evident record of engagements. Each line
// carries the SHA-256 of the line before it.
package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// GenesisHash is the prev_hash of the first entry in a new log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// TimestampFormat is the layout of entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Log is an append-only audit log for one run. Entries are stamped with
// the run ID and region the log was opened with.
type Log struct {
	file     *os.File
	runID    string
	region   string
	prevHash string
	now      func() time.Time
	mu       sync.Mutex
}

// Open opens or creates the log at path and recovers the chain tail from
// its last line.
func Open(path, runID, region string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	prevHash, err := chainTail(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}
	return &Log{
		file:     file,
		runID:    runID,
		region:   region,
		prevHash: prevHash,
		now:      time.Now,
	}, nil
}

func chainTail(path string) (string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return GenesisHash, nil
	}
	if err != nil {
		return "", fmt.Errorf("audit: read existing log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var last []byte
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			last = append(last[:0], scanner.Bytes()...)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("audit: scan existing log: %w", err)
	}
	if last == nil {
		return GenesisHash, nil
	}
	return HashLine(last), nil
}

// Record chains and appends entry, then syncs the file.
func (l *Log) Record(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp == "" {
		entry.Timestamp = l.now().UTC().Format(TimestampFormat)
	}
	entry.RunID = l.runID
	if entry.Region == "" {
		entry.Region = l.region
	}
	entry.PrevHash = l.prevHash

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}

	l.prevHash = HashLine(line)
	return nil
}

// RunID returns the ID stamped on every entry.
func (l *Log) RunID() string {
	return l.runID
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// HashLine returns "sha256:<hex>" of line.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}
