package util

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvOrDefault returns the environment variable value or fallback when it is empty.
func EnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// OverrideString replaces *dst with the variable's value when it is set.
func OverrideString(dst *string, key string) {
	*dst = EnvOrDefault(key, *dst)
}

// OverrideInt replaces *dst when the variable holds an integer.
func OverrideInt(dst *int, key string) {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = n
	}
}

// OverrideBool replaces *dst when the variable holds a boolean.
func OverrideBool(dst *bool, key string) {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = b
	}
}

// OverrideDuration replaces *dst when the variable holds a Go duration.
func OverrideDuration(dst *time.Duration, key string) {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		*dst = d
	}
}

// OverrideList replaces *dst with a comma separated list when the variable is set.
func OverrideList(dst *[]string, key string) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
