package models

import "errors"

var (
	ErrAlreadyAway     = errors.New("user is already away")
	ErrNoActiveSession = errors.New("no active session")
	ErrInvalidUserID   = errors.New("invalid user id")
)

var (
	ErrRedisConnection = errors.New("redis connection error")
	ErrRedisGet        = errors.New("redis get error")
	ErrRedisSet        = errors.New("redis set error")
	ErrRedisDelete     = errors.New("redis delete error")
)

var (
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")
	ErrDatabaseInsert     = errors.New("database insert error")
	ErrDatabaseUpdate     = errors.New("database update error")
	ErrDatabaseDelete     = errors.New("database delete error")
	ErrRecordNotFound     = errors.New("record not found")
)

var (
	ErrQueuePublish = errors.New("queue publish error")
	ErrQueueConsume = errors.New("queue consume error")
)
