package demux

// ConsumerStats is a point-in-time snapshot of one live consumer, used for
// introspection and monitoring. Consumers that have terminated, returned
// early or been killed are no longer reported.
type ConsumerStats struct {
	// ID is the consumer's process-lifetime-unique identifier
	ID int64

	// StreamName is the named stream this consumer filters on
	StreamName string

	// Backpressure is the number of packets addressed to this consumer
	// that have been written but not yet pulled
	Backpressure int
}

// FilterByStream returns the subset of stats belonging to one named stream.
// A name with no live consumers yields an empty slice, never an error.
func FilterByStream(stats []ConsumerStats, streamName string) []ConsumerStats {
	filtered := make([]ConsumerStats, 0, len(stats))
	for _, s := range stats {
		if s.StreamName == streamName {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// MaxBackpressure returns the highest backpressure across the given
// consumers, or 0 when there are none.
func MaxBackpressure(stats []ConsumerStats) int {
	max := 0
	for _, s := range stats {
		if s.Backpressure > max {
			max = s.Backpressure
		}
	}
	return max
}
