package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"
)

const (
	cRestMaxRetries    = 3
	cRestRetryBaseWait = 1 * time.Second
)

// newRestCmd builds one of the raw REST verbs. The request is authorized with
// a token resolved through the cache like any other operation, so a fresh
// login is never needed while a cached credential is still refreshable.
func newRestCmd(verb string) *cobra.Command {
	var (
		identifier string
		body       string
		headers    []string
	)

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <url-or-path>", verb),
		Short: fmt.Sprintf("Issue an authenticated %s request", strings.ToUpper(verb)),
		Long: fmt.Sprintf("Issue an authenticated %s request. A path is resolved against "+
			"the current environment's resource manager endpoint; a full URL is used "+
			"as given.", strings.ToUpper(verb)),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := newBroker(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}

			requestURL := args[0]
			if !strings.Contains(requestURL, "://") {
				armEndpoint, err := b.profile.ResourceManagerEndpoint()
				if err != nil {
					return err
				}
				requestURL = strings.TrimSuffix(armEndpoint, "/") + "/" + strings.TrimPrefix(requestURL, "/")
			}

			record, err := b.manager.Token(cmd.Context(), identifier, "")
			if err != nil {
				return err
			}

			payload, err := resolveBody(body)
			if err != nil {
				return err
			}

			resp, err := doWithRetry(cmd, strings.ToUpper(verb), requestURL, payload, func(req *http.Request) error {
				req.Header.Set("Authorization", fmt.Sprintf("%s %s", record.TokenKind, record.AccessToken))
				if len(payload) > 0 {
					req.Header.Set("Content-Type", "application/json")
				}

				for _, h := range headers {
					name, value, found := strings.Cut(h, ":")
					if !found {
						return fmt.Errorf("malformed header %q, expected 'Name: value'", h)
					}
					req.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
				}
				return nil
			})
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			responseBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			if len(responseBody) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(responseBody), "\n"))
			}

			if resp.StatusCode >= 400 {
				return fmt.Errorf("%s %s returned %s", strings.ToUpper(verb), requestURL, resp.Status)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&identifier, "identifier", "",
		"Tenant, domain or subscription to authenticate as. Defaults to the most recently used identity.")
	cmd.Flags().StringArrayVar(&headers, "header", nil,
		"Additional request header as 'Name: value'. May be repeated.")
	if verb == "put" || verb == "post" {
		cmd.Flags().StringVar(&body, "body", "",
			"Request body, or @<file> to read it from a file.")
	}

	return cmd
}

// doWithRetry issues the request, retrying throttled (429) and server (5xx)
// responses with fibonacci backoff. All other outcomes return immediately.
func doWithRetry(
	cmd *cobra.Command,
	method, requestURL string,
	payload []byte,
	prepare func(*http.Request) error,
) (*http.Response, error) {
	backoff := retry.WithMaxRetries(cRestMaxRetries, retry.NewFibonacci(cRestRetryBaseWait))

	var resp *http.Response
	err := retry.Do(cmd.Context(), backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, requestURL, bytes.NewReader(payload))
		if err != nil {
			return err
		}

		if err := prepare(req); err != nil {
			return err
		}

		r, err := http.DefaultClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}

		if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500 {
			r.Body.Close()
			return retry.RetryableError(fmt.Errorf("%s %s returned %s", method, requestURL, r.Status))
		}

		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func resolveBody(body string) ([]byte, error) {
	if body == "" {
		return nil, nil
	}

	if strings.HasPrefix(body, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(body, "@"))
		if err != nil {
			return nil, fmt.Errorf("reading body file: %w", err)
		}
		return data, nil
	}

	return []byte(body), nil
}
