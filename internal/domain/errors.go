package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrStepCount       = errors.New("unexpected step count")
	ErrMissingStep     = errors.New("missing expected leg")
	ErrOutOfOrder      = errors.New("step completed out of plan order")
	ErrUnsupportedPlan = errors.New("unsupported direction/market combination")
	ErrQueueFull       = errors.New("dispatch queue is full")
)
