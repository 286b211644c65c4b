// Package constants holds application-wide defaults for cloudfm.
package constants

import (
	"time"
)

// Application identity
const (
	// AppName is the binary and config directory name
	AppName = "cloudfm"

	// AppID is the desktop application identifier used by the GUI
	AppID = "io.cloudfm.dashboard"

	// AppTitle is the window and help title
	AppTitle = "Cloud File Manager"
)

// Backend defaults
const (
	// DefaultAPIBaseURL matches the development backend's default listen address
	DefaultAPIBaseURL = "http://localhost:5000"

	// DefaultMaxRetries is 0: a failed request is surfaced once, never retried automatically
	DefaultMaxRetries = 0

	// RetryWaitMin / RetryWaitMax bound backoff when max_retries is raised in config
	RetryWaitMin = 1 * time.Second
	RetryWaitMax = 30 * time.Second

	// RequestIDHeader carries a per-request UUID for correlating client and server logs
	RequestIDHeader = "X-Request-ID"

	// UploadFormField is the multipart field the backend reads the file from
	UploadFormField = "file"

	// DefaultDownloadName is used when the backend sends no Content-Disposition filename
	DefaultDownloadName = "downloaded_file"

	// MaxErrorBodyBytes caps how much of an error response body is read
	MaxErrorBodyBytes = 64 * 1024

	// MaxUserBodyBytes caps the /user/{provider} response; larger bodies are rejected
	MaxUserBodyBytes = 16 * 1024
)

// HTTP transport timeouts
const (
	HTTPDialTimeout           = 30 * time.Second
	HTTPDialKeepAlive         = 30 * time.Second
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 15 * time.Second
	HTTPExpectContinueTimeout = 1 * time.Second

	// ProxyWarmupTimeout bounds the optional proxy warmup request
	ProxyWarmupTimeout = 15 * time.Second

	// DefaultProxyPort is used when proxy mode is set but no port is configured
	DefaultProxyPort = 8080
)

// Event bus sizing
const (
	// EventBusDefaultBuffer is the per-subscriber channel buffer
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer caps requested buffer sizes
	EventBusMaxBuffer = 4096
)

// User-facing messages shared by the terminal and desktop front ends
const (
	MsgSelectFileFirst = "Please select a file first!"
	MsgLoginFirst      = "Please log in to %s first!"
	MsgUploadSuccess   = "File uploaded successfully!"
	MsgDeleteSuccess   = "File deleted successfully!"
	MsgLogoutSuccess   = "Logged out successfully"
	MsgNoFiles         = "No files found"
	MsgNotConnected    = "Not connected"
	MsgUnknownError    = "Unknown error"
)

// Progress bar rendering
const (
	ProgressRefreshRate = 150 * time.Millisecond
	ProgressBarWidth    = 50
)
