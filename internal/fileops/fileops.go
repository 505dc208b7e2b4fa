// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package fileops copies and moves files, optionally threading their content
// through a filter chain.
package fileops

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/specialistvlad/markbuild/internal/binder"
	"github.com/specialistvlad/markbuild/internal/ctxlog"
	"github.com/specialistvlad/markbuild/internal/filters"
	"github.com/specialistvlad/markbuild/internal/textenc"
	"golang.org/x/text/transform"
)

const (
	opCopy = "copy"
	opMove = "move"

	modeRaw      = "raw"
	modeFiltered = "filtered"
)

// ErrSameFile is returned when the source and the destination of a transfer
// are the same file.
var ErrSameFile = errors.New("source and destination are the same file")

// TransferError is returned when a copy or move fails.
type TransferError struct {
	Op  string
	Src string
	Dst string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("failed to %s '%s' to '%s': %v", e.Op, e.Src, e.Dst, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Copier performs file transfers.
type Copier struct {
	env     *binder.Env
	metrics *Metrics
}

// NewCopier creates a copier. env supplies the property store to filters that
// need one; metrics may be nil.
func NewCopier(env *binder.Env, metrics *Metrics) *Copier {
	return &Copier{env: env, metrics: metrics}
}

// Copy copies src to dst. Without a chain, or with an empty one, the bytes are
// copied unchanged.
func (c *Copier) Copy(ctx context.Context, src, dst string, chain *filters.Chain) error {
	if sameFile(src, dst) {
		return &TransferError{Op: opCopy, Src: src, Dst: dst, Err: ErrSameFile}
	}
	if err := c.copy(ctx, opCopy, src, dst, chain); err != nil {
		return &TransferError{Op: opCopy, Src: src, Dst: dst, Err: err}
	}
	return nil
}

// Move moves src to dst. Without a chain this is a rename. With one, the file
// is copied through the chain and the source removed afterwards; the two
// steps are not atomic, and a failure to remove the source leaves both files
// in place.
func (c *Copier) Move(ctx context.Context, src, dst string, chain *filters.Chain) error {
	wrap := func(err error) error {
		return &TransferError{Op: opMove, Src: src, Dst: dst, Err: err}
	}
	if sameFile(src, dst) {
		return wrap(ErrSameFile)
	}

	if chain.Empty() {
		ctxlog.FromContext(ctx).Debug("Renaming file.", "src", src, "dst", dst)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return wrap(err)
		}
		if err := os.Rename(src, dst); err != nil {
			return wrap(err)
		}
		c.metrics.transferred(opMove, modeRaw)
		return nil
	}

	if err := c.copy(ctx, opMove, src, dst, chain); err != nil {
		return wrap(err)
	}
	if err := os.Remove(src); err != nil {
		return wrap(fmt.Errorf("copied but could not remove source: %w", err))
	}
	return nil
}

func (c *Copier) copy(ctx context.Context, op, src, dst string, chain *filters.Chain) error {
	logger := ctxlog.FromContext(ctx)
	if chain.Empty() {
		logger.Debug("Copying file.", "src", src, "dst", dst, "mode", modeRaw)
		if err := rawCopy(src, dst); err != nil {
			return err
		}
		c.metrics.transferred(op, modeRaw)
		return nil
	}

	// Encodings are resolved before anything is opened.
	input, output, err := chain.Resolve()
	if err != nil {
		return err
	}
	logger.Debug("Copying file.", "src", src, "dst", dst, "mode", modeFiltered, "encoding", input.String(), "outputencoding", output.String())
	n, err := c.filteredCopy(ctx, src, dst, chain, input, output)
	if err != nil {
		return err
	}
	c.metrics.transferred(op, modeFiltered)
	c.metrics.filtered(n)
	return nil
}

func rawCopy(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := create(dst)
	if err != nil {
		return err
	}
	defer closeInto(out, &err)

	_, err = io.Copy(out, in)
	return err
}

func (c *Copier) filteredCopy(ctx context.Context, src, dst string, chain *filters.Chain, input, output textenc.Encoding) (n int, err error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	text, err := textenc.NewReader(in, input)
	if err != nil {
		return 0, err
	}
	pipeline, err := chain.Materialize(ctx, text, c.env)
	if err != nil {
		return 0, err
	}
	if output.IsZero() {
		output = text.Encoding()
	}

	out, err := create(dst)
	if err != nil {
		return 0, err
	}
	defer closeInto(out, &err)

	encoded := transform.NewWriter(out, output.NewEncoder())
	w := bufio.NewWriter(encoded)
	for {
		r, _, rerr := pipeline.ReadRune()
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return n, rerr
		}
		if _, err := w.WriteRune(r); err != nil {
			return n, err
		}
		n++
	}
	if err := w.Flush(); err != nil {
		return n, err
	}
	return n, encoded.Close()
}

// sameFile reports whether src and dst name the same existing file, through
// different spellings, symlinks or hard links included. Paths that cannot be
// inspected are left to the transfer to report.
func sameFile(src, dst string) bool {
	if a, err := filepath.Abs(src); err == nil {
		if b, err := filepath.Abs(dst); err == nil && a == b {
			return true
		}
	}
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	di, err := os.Stat(dst)
	if err != nil {
		return false
	}
	return os.SameFile(si, di)
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// closeInto closes f and records the close error unless an earlier error is
// already being returned.
func closeInto(f *os.File, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

// Destination returns the target path for src given either an explicit
// destination file or a destination directory.
func Destination(src, toFile, toDir string) (string, error) {
	switch {
	case toFile != "" && toDir != "":
		return "", errors.New("only one of 'tofile' and 'todir' may be set")
	case toFile != "":
		return toFile, nil
	case toDir != "":
		return filepath.Join(toDir, filepath.Base(src)), nil
	default:
		return "", errors.New("one of 'tofile' or 'todir' is required")
	}
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
