package svc

import "errors"

// ErrNoSourcesEnabled means every price source is disabled in the configuration.
var ErrNoSourcesEnabled = errors.New("no price sources enabled")

// ErrStorageInitFailed wraps any storage backend that failed to open.
var ErrStorageInitFailed = errors.New("storage initialization failed")
