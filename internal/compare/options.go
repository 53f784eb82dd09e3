package compare

// Option accessors tolerate both JSON-decoded values (float64, bool) and
// values set directly from Go code (int). Type checking is the job of
// ValidateOptions; accessors fall back to the default on any mismatch.

func optBool(opts Options, key string, def bool) bool {
	if opts == nil {
		return def
	}
	if v, ok := opts[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func optFloat(opts Options, key string, def float64) float64 {
	if opts == nil {
		return def
	}
	switch v := opts[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

func optString(opts Options, key, def string) string {
	if opts == nil {
		return def
	}
	if v, ok := opts[key].(string); ok {
		return v
	}
	return def
}

// checkBool returns a failing ValidationResult when the option is present
// with a non-boolean value.
func checkBool(opts Options, key string) (ValidationResult, bool) {
	v, ok := opts[key]
	if !ok {
		return valid(), true
	}
	if _, ok := v.(bool); !ok {
		return invalid("%s must be a boolean", key), false
	}
	return valid(), true
}

// checkNumber returns a failing ValidationResult when the option is present
// with a non-numeric value, or when it falls outside [lo, hi].
func checkNumber(opts Options, key string, lo, hi float64) (ValidationResult, bool) {
	v, ok := opts[key]
	if !ok {
		return valid(), true
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return invalid("%s must be a number", key), false
	}

	if f < lo || f > hi {
		return invalid("%s must be between %g and %g", key, lo, hi), false
	}
	return valid(), true
}

// checkString returns a failing ValidationResult when the option is present
// with a non-string value.
func checkString(opts Options, key string) (ValidationResult, bool) {
	v, ok := opts[key]
	if !ok {
		return valid(), true
	}
	if _, ok := v.(string); !ok {
		return invalid("%s must be a string", key), false
	}
	return valid(), true
}
