package filesystem

// Observer records filesystem operation metrics. The implementation lives in
// the metrics package to break the import cycle between the two.
type Observer interface {
	// ObserveOperation records the duration and outcome of one operation.
	// volume is "media" or "cache"; operation is "stat", "open" or "write".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	// ObserveRetry records one extra attempt after an ESTALE error.
	ObserveRetry(volume, operation string)
}

var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observeOperation(volume, operation string, seconds float64, err error) {
	if o := defaultObserver; o != nil {
		o.ObserveOperation(volume, operation, seconds, err)
	}
}

func observeRetry(volume, operation string) {
	if o := defaultObserver; o != nil {
		o.ObserveRetry(volume, operation)
	}
}
