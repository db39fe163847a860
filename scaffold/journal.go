package scaffold

import (
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/ZacxDev/hotel-site/logging"
	"github.com/pkg/errors"
)

type opKind int

const (
	opCreated opKind = iota
	opModified
)

type operation struct {
	kind     opKind
	path     string
	original []byte
	mode     fs.FileMode
}

// Journal records reversible filesystem operations so a failed command can
// put every touched file back the way it was.
type Journal struct {
	ops    []operation
	logger logging.Logger
}

func NewJournal(logger logging.Logger) *Journal {
	return &Journal{logger: logging.OrNoOp(logger)}
}

// Len returns the number of recorded operations.
func (j *Journal) Len() int { return len(j.ops) }

// Create writes a new file. It fails if path already exists.
func (j *Journal) Create(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	j.ops = append(j.ops, operation{kind: opCreated, path: path})
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

// Track records the current state of path before something outside the
// journal rewrites it. A missing file is deleted again on rollback.
func (j *Journal) Track(path string) error {
	data, info, err := readWithMode(path)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		j.ops = append(j.ops, operation{kind: opCreated, path: path})
		return nil
	case err != nil:
		return err
	}
	j.ops = append(j.ops, operation{kind: opModified, path: path, original: data, mode: info})
	return nil
}

// Write replaces the content of an existing file.
func (j *Journal) Write(path string, data []byte) error {
	if err := j.Track(path); err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}

// Remove deletes path. Its content is restored on rollback.
func (j *Journal) Remove(path string) error {
	original, mode, err := readWithMode(path)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return errors.Wrapf(err, "remove %s", path)
	}
	j.ops = append(j.ops, operation{kind: opModified, path: path, original: original, mode: mode})
	return nil
}

// Rollback undoes the recorded operations in reverse order. Every
// operation is attempted; failures are logged and the first one returned.
func (j *Journal) Rollback() error {
	var first error
	for i := len(j.ops) - 1; i >= 0; i-- {
		op := j.ops[i]
		var err error
		switch op.kind {
		case opCreated:
			err = os.Remove(op.path)
			if stderrors.Is(err, fs.ErrNotExist) {
				err = nil
			}
		case opModified:
			err = os.WriteFile(op.path, op.original, op.mode)
		}
		if err != nil {
			j.logger.Error("scaffold.rollback.failed", "path", op.path, "error", err)
			if first == nil {
				first = errors.Wrapf(err, "rollback %s", op.path)
			}
			continue
		}
		j.logger.Debug("scaffold.rollback.reverted", "path", op.path)
	}
	j.ops = nil
	return first
}

// Commit forgets the recorded operations.
func (j *Journal) Commit() { j.ops = nil }

func readWithMode(path string) ([]byte, fs.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "read %s", path)
	}
	return data, info.Mode().Perm(), nil
}
