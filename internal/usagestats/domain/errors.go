package domain

import "errors"

var (
	ErrInvalidStatField = errors.New("invalid_field")
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidToolName  = errors.New("invalid_tool_name")
	ErrStatsNotFound    = errors.New("usage_stats_not_found")
)
