package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/stretchr/testify/require"
)

func TestAuthorityErrorParsesResponse(t *testing.T) {
	body, err := json.Marshal(&AadErrorResponse{
		Error:            "invalid_client",
		ErrorDescription: "AADSTS7000215: Invalid client secret provided.",
	})
	require.NoError(t, err)

	inner := &azidentity.AuthenticationFailedError{
		RawResponse: &http.Response{
			StatusCode: 401,
			Status:     "401 Unauthorized",
			Body:       io.NopCloser(bytes.NewReader(body)),
		},
	}

	wrapped := newAuthorityError(inner)
	require.Contains(t, wrapped.Error(), "failed to authenticate")
	require.Contains(t, wrapped.Error(), "(invalid_client)")
	require.Contains(t, wrapped.Error(), "AADSTS7000215")

	// The original error stays reachable for callers that inspect it.
	var authFailed *azidentity.AuthenticationFailedError
	require.ErrorAs(t, wrapped, &authFailed)
}

func TestAuthorityErrorNonHTTP(t *testing.T) {
	wrapped := newAuthorityError(errors.New("dial tcp: connection refused"))
	require.Contains(t, wrapped.Error(), "failed to authenticate")
	require.Contains(t, wrapped.Error(), "connection refused")
}

func TestAuthorityErrorUnparsableBody(t *testing.T) {
	inner := &azidentity.AuthenticationFailedError{
		RawResponse: &http.Response{
			StatusCode: 502,
			Status:     "502 Bad Gateway",
			Body:       io.NopCloser(bytes.NewReader([]byte("<html>bad gateway</html>"))),
		},
	}

	// An unparsable body falls back to the inner error text and never panics.
	wrapped := newAuthorityError(inner)
	require.Contains(t, wrapped.Error(), "failed to authenticate")
}
