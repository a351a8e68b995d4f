package wire

import "errors"

var (
	ErrEmptyDatagram   = errors.New("wire: empty datagram")
	ErrUnknownKind     = errors.New("wire: unknown message kind")
	ErrTruncated       = errors.New("wire: truncated payload")
	ErrTooManyArgs     = errors.New("wire: arg_count exceeds maximum")
	ErrTrailingBytes   = errors.New("wire: trailing bytes after payload")
	ErrWrongKindRewrite = errors.New("wire: cannot rewrite Ping to Pong on a non-Ping datagram")
)
