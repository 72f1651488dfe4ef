package repository

// stringPtrOrNil maps an empty string to NULL for optional columns.
func stringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
