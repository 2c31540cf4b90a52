package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/alphastudio/neuralcore/pkg/providers"
)

// ConfigError means credentials are missing or rejected. Retrying with a
// different model cannot help, so it is reported once without fallback.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Reason
}

// TimeoutError means no data arrived within the first-byte deadline.
type TimeoutError struct {
	Model    string
	Deadline time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("model %s: no data within %s", e.Model, e.Deadline)
}

// EmptyStreamError means the stream completed without ever producing
// content. Treated as a failure requiring fallback, not a silent success.
type EmptyStreamError struct {
	Model string
}

func (e *EmptyStreamError) Error() string {
	return fmt.Sprintf("model %s: stream completed without content", e.Model)
}

// retryable reports whether a different model could plausibly succeed.
// Credential problems cannot be solved by fallback. Everything else gets
// one shot at the fallback model, including provider refusals, since a
// different model may not be blocked.
func retryable(err error) bool {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return false
	}
	var apiErr *providers.APIError
	if errors.As(err, &apiErr) && apiErr.Kind == providers.KindAuth {
		return false
	}
	return true
}

// fragmentFor renders the terminal in-band notice for err. The transcript
// always receives a displayable assistant turn, so these read as system
// notices rather than raw error dumps.
func fragmentFor(err error) string {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return fmt.Sprintf("\n[SYSTEM_NOTICE]: Neural Core Offline. %s.", cfgErr.Reason)
	}

	var apiErr *providers.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case providers.KindRefusal:
			return fmt.Sprintf("\n[SYSTEM_NOTICE]: Request Declined by Provider. %s", apiErr.Error())
		case providers.KindAuth:
			return "\n[SYSTEM_NOTICE]: Neural Core Offline. API credentials were rejected."
		}
		return fmt.Sprintf("\n[SYSTEM_NOTICE]: Neural Link Interrupted. %s", apiErr.Error())
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return "\n[SYSTEM_NOTICE]: Neural Link Interrupted. The model did not respond in time."
	}

	var emptyErr *EmptyStreamError
	if errors.As(err, &emptyErr) {
		return "\n[SYSTEM_NOTICE]: Neural Link Interrupted. The model returned an empty response."
	}

	return fmt.Sprintf("\n[SYSTEM_NOTICE]: Neural Link Interrupted. %v", err)
}
