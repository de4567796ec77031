package journal

import (
	"fmt"
	"time"
)

const (
	defaultSegmentMaxBytes    int64 = 1 << 30
	defaultSegmentMaxDuration       = 5 * time.Minute
	defaultQueueSize                = 4096
	defaultBufferSize               = 256 * 1024
	defaultFilePrefix               = "journal"
)

// Config controls journal writer behavior.
type Config struct {
	Dir                string        `json:"dir"`
	SegmentMaxBytes    int64         `json:"segmentMaxBytes"`
	SegmentMaxDuration time.Duration `json:"segmentMaxDuration"`
	QueueSize          int           `json:"queueSize"`
	BufferSize         int           `json:"bufferSize"`
	FilePrefix         string        `json:"filePrefix"`
	FlushInterval      time.Duration `json:"flushInterval"`
	SyncInterval       time.Duration `json:"syncInterval"`
	CopyPayload        bool          `json:"copyPayload"`
}

// DefaultConfig returns a baseline configuration for the journal writer.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:                dir,
		SegmentMaxBytes:    defaultSegmentMaxBytes,
		SegmentMaxDuration: defaultSegmentMaxDuration,
		QueueSize:          defaultQueueSize,
		BufferSize:         defaultBufferSize,
		FilePrefix:         defaultFilePrefix,
	}
}

// withDefaults fills zero values, except SegmentMaxDuration: a zero
// duration stays zero and disables age-based rotation.
func (c Config) withDefaults() Config {
	if c.SegmentMaxBytes == 0 {
		c.SegmentMaxBytes = defaultSegmentMaxBytes
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.FilePrefix == "" {
		c.FilePrefix = defaultFilePrefix
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.Dir == "":
		return fmt.Errorf("invalid journal config: Dir is empty")
	case c.SegmentMaxBytes <= 0:
		return fmt.Errorf("invalid journal config: SegmentMaxBytes must be > 0")
	case c.QueueSize <= 0:
		return fmt.Errorf("invalid journal config: QueueSize must be > 0")
	case c.BufferSize <= 0:
		return fmt.Errorf("invalid journal config: BufferSize must be > 0")
	case c.FilePrefix == "":
		return fmt.Errorf("invalid journal config: FilePrefix is empty")
	case c.FlushInterval < 0:
		return fmt.Errorf("invalid journal config: FlushInterval must be >= 0")
	case c.SyncInterval < 0:
		return fmt.Errorf("invalid journal config: SyncInterval must be >= 0")
	}
	return nil
}
