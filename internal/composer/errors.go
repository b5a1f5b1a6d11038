package composer

// ErrNotImplemented reports that a production kind has no defined compose
// semantics (§4.5 lists the supported subset explicitly). Callers must
// surface this rather than guess at a wire encoding.
type ErrNotImplemented struct {
	Kind string
}

func (e *ErrNotImplemented) Error() string {
	return "composer: production kind " + e.Kind + " has no compose semantics"
}
