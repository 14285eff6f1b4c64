package hippo

import "fmt"

// The fetch failure taxonomy. Only TransientNetworkError is worth retrying;
// the other kinds describe a response that will not get better by asking
// again.

// TransientNetworkError reports a network-level failure (timeout, connection
// reset, 5xx) that may succeed on a later attempt.
type TransientNetworkError struct {
	Ticker string
	Err    error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("transient network error for %s: %v", e.Ticker, e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// MalformedResponseError reports a response that is not valid structured data
// or does not carry the expected payload shape.
type MalformedResponseError struct {
	Ticker string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response for %s: %s", e.Ticker, e.Reason)
}

// RemoteAPIError reports an explicit error payload returned by the remote
// API.
type RemoteAPIError struct {
	Ticker  string
	Message string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("remote API error for %s: %s", e.Ticker, e.Message)
}

// MappingResolutionError reports a mapping entry that has no usable ticker.
// Such entries are skipped, never retried.
type MappingResolutionError struct {
	Name string
}

func (e *MappingResolutionError) Error() string {
	return fmt.Sprintf("no ticker found for mapping entry %q", e.Name)
}

// EmptyDatasetError is returned by every writer handed an empty record set,
// instead of silently producing a file with only a header or DDL.
type EmptyDatasetError struct {
	Encoding string
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("refusing to write empty dataset as %s", e.Encoding)
}

// ConsistencyMismatchError is returned when the validator finds mismatches
// beyond the configured thresholds, or when the mapping itself carries
// duplicate ids or tickers.
type ConsistencyMismatchError struct {
	Report *Report
}

func (e *ConsistencyMismatchError) Error() string {
	if e.Report == nil {
		return "consistency mismatch"
	}
	return fmt.Sprintf("consistency mismatch: %s", e.Report.Problem())
}
