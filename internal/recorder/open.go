package recorder

import "go.uber.org/zap"

// Open returns a SQLite recorder for path, or a NoopRecorder when path is empty.
func Open(logger *zap.Logger, path string) (Recorder, error) {
	if path == "" {
		return NewNoopRecorder(), nil
	}
	rec, err := NewSQLiteRecorder(logger, path)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
