package alerts

import "time"

// DeliveryResult classifies a webhook response status.
type DeliveryResult int

const (
	// DeliveryResultOK is a delivered alert (2xx).
	DeliveryResultOK DeliveryResult = iota
	// DeliveryResultStop is a permanent failure; the alert is dropped
	// (4xx other than 429).
	DeliveryResultStop
	// DeliveryResultBackoff is a transient failure worth retrying
	// (429/5xx).
	DeliveryResultBackoff
	// DeliveryResultUnknown is anything else (3xx and friends); treated
	// as permanent.
	DeliveryResultUnknown
)

const (
	// initialBackoff is the first retry delay.
	initialBackoff = 2 * time.Second
	// maxBackoff caps the exponential growth.
	maxBackoff = 5 * time.Minute
)

// ClassifyHTTPStatus maps a webhook response status to a delivery result.
func ClassifyHTTPStatus(statusCode int) DeliveryResult {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return DeliveryResultOK
	case statusCode == 429:
		return DeliveryResultBackoff
	case statusCode >= 500:
		return DeliveryResultBackoff
	case statusCode >= 400:
		return DeliveryResultStop
	default:
		return DeliveryResultUnknown
	}
}

// CalculateBackoff returns the delay before retry n (0-based): 2s, 4s,
// 8s, doubling up to the cap.
func CalculateBackoff(attempt int) time.Duration {
	delay := initialBackoff
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
