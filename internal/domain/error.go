package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrAlreadyExists    = errors.New("entity already exists")
	ErrGroupNotFound    = errors.New("group not found")
	ErrCodeNotFound     = errors.New("redemption code not found")
	ErrCodeInactive     = errors.New("redemption code is inactive")
	ErrCodeExpired      = errors.New("redemption code has expired")
	ErrLimitExceeded    = errors.New("redemption code usage limit exceeded")
	ErrTrialActive      = errors.New("recipient already has an active free trial")
	ErrDuplicatePending = errors.New("a pending join request already exists")
	ErrNotPending       = errors.New("join request is not pending")
	ErrAlreadyMember    = errors.New("user is already a member of the group")
	ErrAlreadyReacted   = errors.New("user already reacted with this type")
	ErrInvalidTarget    = errors.New("reaction must target exactly one of post or comment")

	// Infrastructure-facing errors surfaced by repositories.
	ErrInvalidExecContext = errors.New("invalid executor context for query")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrRateLimited        = errors.New("too many attempts")
)
