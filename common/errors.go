package common

import (
	"errors"
	"strconv"
)

type ErrorKind int

const (
	InvalidArgument ErrorKind = iota + 1
	ResolutionError
	ProtocolMismatch
	RemoteError
	LocalIOError
)

var kindNames = map[ErrorKind]string{
	InvalidArgument:  "invalid argument",
	ResolutionError:  "resolution error",
	ProtocolMismatch: "protocol mismatch",
	RemoteError:      "remote error",
	LocalIOError:     "local io error",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown error"
}

// sentinels for errors.Is, matched by kind only.
var (
	InvalidArgumentErr  = &StorageError{Kind: InvalidArgument, Code: ERR_NO_EINVAL}
	ResolutionErr       = &StorageError{Kind: ResolutionError}
	ProtocolMismatchErr = &StorageError{Kind: ProtocolMismatch, Code: ERR_NO_EIO}
	RemoteErr           = &StorageError{Kind: RemoteError}
	LocalIOErr          = &StorageError{Kind: LocalIOError, Code: ERR_NO_EIO}
)

// StorageError is returned by every storage operation.
type StorageError struct {
	Kind ErrorKind
	Code byte   // errno reported to the caller
	Op   string // operation name, e.g. "upload"
	Err  error  // underlying cause, may be nil
}

func (e *StorageError) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Code != 0 {
		msg += " (errno " + strconv.Itoa(int(e.Code)) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a StorageError of the same kind.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// BreaksConnection reports whether the connection the error occurred on
// can no longer be trusted.
func (e *StorageError) BreaksConnection() bool {
	return e.Kind == LocalIOError || e.Kind == ProtocolMismatch
}

// Errno is an error carrying a bare errno, Pushers and Pullers may return it
// to choose the code an aborted operation reports.
type Errno byte

func (e Errno) Error() string {
	return "errno " + strconv.Itoa(int(e))
}

func NewInvalidArgumentError(op string, msg string) *StorageError {
	return &StorageError{Kind: InvalidArgument, Code: ERR_NO_EINVAL, Op: op, Err: errors.New(msg)}
}

func NewResolutionError(op string, err error) *StorageError {
	code := ERR_NO_EIO
	var se *StorageError
	if errors.As(err, &se) && se.Code != 0 {
		code = se.Code
	}
	var en Errno
	if errors.As(err, &en) && en != 0 {
		code = byte(en)
	}
	return &StorageError{Kind: ResolutionError, Code: code, Op: op, Err: err}
}

func NewProtocolError(op string, msg string) *StorageError {
	return &StorageError{Kind: ProtocolMismatch, Code: ERR_NO_EIO, Op: op, Err: errors.New(msg)}
}

func NewRemoteError(op string, status byte) *StorageError {
	return &StorageError{Kind: RemoteError, Code: status, Op: op}
}

// NewLocalIOError wraps err as a local io error. An Errno inside err
// overrides the default EIO code.
func NewLocalIOError(op string, err error) *StorageError {
	var se *StorageError
	if errors.As(err, &se) {
		return se
	}
	code := ERR_NO_EIO
	var en Errno
	if errors.As(err, &en) && en != 0 {
		code = byte(en)
	}
	return &StorageError{Kind: LocalIOError, Code: code, Op: op, Err: err}
}

// NewAbortError reports a transfer aborted by a Pusher or Puller. The
// stream is left in an unknown state so the error is always a local io error.
// A zero errno is reported as EIO.
func NewAbortError(op string, err error) *StorageError {
	code := ErrorCode(err)
	if code == 0 {
		code = ERR_NO_EIO
	}
	return &StorageError{Kind: LocalIOError, Code: code, Op: op, Err: err}
}

// ErrorCode returns the errno of err, 0 if err is nil.
func ErrorCode(err error) byte {
	if err == nil {
		return 0
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Code
	}
	var en Errno
	if errors.As(err, &en) {
		return byte(en)
	}
	return ERR_NO_EIO
}

// IsConnectionBroken reports whether err leaves the connection unusable.
func IsConnectionBroken(err error) bool {
	if err == nil {
		return false
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.BreaksConnection()
	}
	return true
}
