package serializer

// Global serialize the given render to the general API response format.
func Global(message string, render map[string]any) map[string]any {
	m := map[string]any{
		"error":   false,
		"message": message,
	}
	for k, v := range render {
		m[k] = v
	}
	return m
}
