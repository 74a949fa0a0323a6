package xerrors

// Unwrap flattens errors joined with errors.Join into a single slice.
// Errors that do not join others are returned as is.
func Unwrap(err error) []error {
	if err == nil {
		return nil
	}
	u, ok := err.(interface {
		Unwrap() []error
	})
	if !ok {
		return []error{err}
	}

	var errs []error
	for _, e := range u.Unwrap() {
		errs = append(errs, Unwrap(e)...)
	}
	return errs
}
