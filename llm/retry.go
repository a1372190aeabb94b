package llm

import "time"

// DefaultRetryStrategy decides whether and when a failed remote call is repeated,
// backing off exponentially. With MaxRetries 0 it never retries. A strategy
// belongs to a single call.
type DefaultRetryStrategy struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
	attempts    int
}

func NewRetryStrategy(maxRetries int, initialWait time.Duration) *DefaultRetryStrategy {
	return &DefaultRetryStrategy{
		MaxRetries:  maxRetries,
		InitialWait: initialWait,
		MaxWait:     30 * time.Second,
	}
}

func (s *DefaultRetryStrategy) ShouldRetry(err error) bool {
	if err == nil || s.attempts >= s.MaxRetries {
		return false
	}
	if llmErr, ok := err.(*LLMError); ok {
		return llmErr.Retryable()
	}
	return false
}

const maxShiftAmount = 30

func (s *DefaultRetryStrategy) NextDelay() time.Duration {
	s.attempts++
	shiftAmount := min(s.attempts-1, maxShiftAmount)
	delay := s.InitialWait * time.Duration(1<<shiftAmount)
	if delay > s.MaxWait || delay < 0 {
		delay = s.MaxWait
	}
	return delay
}
