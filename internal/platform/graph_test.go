package platform

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsOAuthError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"oauth exception type", &GraphError{Type: "OAuthException", Code: 10}, true},
		{"code 190", &GraphError{Code: 190}, true},
		{"code 102", &GraphError{Code: 102}, true},
		{"http 401", &GraphError{Code: 1, HTTPStatus: http.StatusUnauthorized}, true},
		{"wrapped", fmt.Errorf("publish: %w", &GraphError{Code: 190}), true},
		{"generic graph error", &GraphError{Code: 100}, false},
		{"plain error", errors.New("dial tcp: timeout"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsOAuthError(tc.err))
		})
	}
}

func TestIsMediaNotReady(t *testing.T) {
	assert.True(t, IsMediaNotReady(&GraphError{Code: 9007, Subcode: 2207027}))
	assert.True(t, IsMediaNotReady(fmt.Errorf("wrapped: %w", &GraphError{Code: 9007, Subcode: 2207027})))

	// Code and subcode must match together.
	assert.False(t, IsMediaNotReady(&GraphError{Code: 9007}))
	assert.False(t, IsMediaNotReady(&GraphError{Subcode: 2207027}))
	assert.False(t, IsMediaNotReady(errors.New("not a graph error")))
}
