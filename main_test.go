package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterSensitiveHeaders(t *testing.T) {
	filtered := filterSensitiveHeaders(map[string]string{
		"Authorization": "Bearer abc",
		"Cookie":        "access_token=abc",
		"X-Api-Key":     "k",
		"Content-Type":  "application/json",
	})

	assert.Equal(t, map[string]string{
		"Authorization": "[REDACTED]",
		"Cookie":        "[REDACTED]",
		"X-Api-Key":     "[REDACTED]",
		"Content-Type":  "application/json",
	}, filtered)
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, releaseVersion, GetVersion())
}
