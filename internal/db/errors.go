package db

import "errors"

var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
)

// Op names recorded on Error, one per server command.
const (
	OpCreateIndex      = "FT.CREATE"
	OpIndexInfo        = "FT.INFO"
	OpSearch           = "FT.SEARCH"
	OpDel              = "DEL"
	OpGet              = "GET"
	OpSet              = "SET"
	OpExpire           = "EXPIRE"
	OpZAdd             = "ZADD"
	OpZRem             = "ZREM"
	OpZCard            = "ZCARD"
	OpZRange           = "ZRANGE"
	OpZRemRangeByScore = "ZREMRANGEBYSCORE"
)

// Error tags a failure with the command that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
