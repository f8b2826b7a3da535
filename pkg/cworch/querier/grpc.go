// Package querier implements the read-only capability surfaces (Bank, Wasm,
// Node, Ibc) described in spec.md §4.2, and the gRPC endpoint-selection
// procedure in spec.md §4.3.
package querier

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"cosmossdk.io/log"
	tmservice "github.com/cosmos/cosmos-sdk/client/grpc/tmservice"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// ErrGrpcListEmpty and ErrCannotConnectGrpc are the sentinel errors this
// package returns. They are distinct values from environment's sentinels of
// the same names; nothing in this module maps one onto the other.
var (
	ErrGrpcListEmpty     = fmt.Errorf("querier: grpc url list is empty")
	ErrCannotConnectGrpc = fmt.Errorf("querier: could not connect to any grpc endpoint")
)

// ChainIDMismatchError is returned wrapped in ErrCannotConnectGrpc when a
// reachable endpoint advertising an unexpected chain-id was the last
// failure SelectEndpoint saw.
type ChainIDMismatchError struct {
	URL      string
	Expected string
	Got      string
}

func (e *ChainIDMismatchError) Error() string {
	return fmt.Sprintf("grpc endpoint %s: expected chain-id %q, got %q", e.URL, e.Expected, e.Got)
}

// DialOptions configures SelectEndpoint. Timeout bounds each connection
// attempt (plain and TLS); zero means use a 5s default.
type DialOptions struct {
	Timeout time.Duration
}

// SelectEndpoint implements the procedure in spec.md §4.3: try each URL in
// order, plaintext first, then a TLS fallback only for URLs that look like
// they might require it ("https" in the URL, or port 443), and accept only
// endpoints whose advertised chain-id matches expected. An empty list
// is ErrGrpcListEmpty; exhausting the list without a match is
// ErrCannotConnectGrpc. Ties are NOT broken by "first success" — per
// spec.md §4.3 "Ties are broken by 'last successful'" — so every candidate
// is tried and the last one to succeed AND match is returned.
func SelectEndpoint(ctx context.Context, urls []string, expectedChainID string, opts DialOptions, logger log.Logger) (*grpc.ClientConn, string, error) {
	if len(urls) == 0 {
		return nil, "", ErrGrpcListEmpty
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	var lastGood *grpc.ClientConn
	var lastGoodURL string
	var lastErr error

	for _, url := range urls {
		conn, chainID, err := tryEndpoint(ctx, url, timeout, false)
		if err != nil {
			// Plain connect failed. TLS is only a fallback, never primary,
			// because some local simulators speak plaintext on :443
			// (spec.md §4.3).
			if !looksLikeTLS(url) {
				lastErr = err
				logger.Debug("grpc endpoint unreachable, skipping", "url", url, "err", err)
				continue
			}
			conn, chainID, err = tryEndpoint(ctx, url, timeout, true)
			if err != nil {
				lastErr = err
				logger.Debug("grpc endpoint unreachable over tls, skipping", "url", url, "err", err)
				continue
			}
		}

		if chainID != expectedChainID {
			mismatch := &ChainIDMismatchError{URL: url, Expected: expectedChainID, Got: chainID}
			logger.Error("grpc endpoint chain-id mismatch, skipping", "url", url, "expected", expectedChainID, "got", chainID)
			_ = conn.Close()
			lastErr = mismatch
			continue
		}

		if lastGood != nil {
			_ = lastGood.Close()
		}
		lastGood = conn
		lastGoodURL = url
	}

	if lastGood == nil {
		if lastErr != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrCannotConnectGrpc, lastErr)
		}
		return nil, "", ErrCannotConnectGrpc
	}
	return lastGood, lastGoodURL, nil
}

func looksLikeTLS(url string) bool {
	return strings.Contains(url, "https") || strings.Contains(url, ":443")
}

func tryEndpoint(ctx context.Context, url string, timeout time.Duration, useTLS bool) (*grpc.ClientConn, string, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var creds credentials.TransportCredentials
	if useTLS {
		creds = credentials.NewTLS(&tls.Config{})
	} else {
		creds = insecure.NewCredentials()
	}

	target := stripScheme(url)
	conn, err := grpc.DialContext(dialCtx, target, grpc.WithTransportCredentials(creds), grpc.WithBlock())
	if err != nil {
		return nil, "", err
	}

	client := tmservice.NewServiceClient(conn)
	resp, err := client.GetNodeInfo(dialCtx, &tmservice.GetNodeInfoRequest{})
	if err != nil {
		_ = conn.Close()
		return nil, "", err
	}

	return conn, resp.DefaultNodeInfo.Network, nil
}

func stripScheme(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "grpc://")
	return url
}
