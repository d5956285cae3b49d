package ptr

func To[T any](v T) *T {
	return &v
}

// Deref returns def for a nil pointer
func Deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
