package service

import "errors"

var (
	ErrCannotFetchLogs    = errors.New("cannot fetch logs")
	ErrCannotFetchUsers   = errors.New("cannot fetch users")
	ErrCannotFetchStats   = errors.New("cannot fetch activity stats")
	ErrCannotRecordAction = errors.New("cannot record audit action")
)
