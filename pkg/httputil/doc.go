// Package httputil provides HTTP helpers for keygraph's outgoing clients.
//
// # Retry
//
// [Retry] re-runs an operation with exponential backoff, but only for
// errors wrapped in [RetryableError]. Everything else is returned on the
// first failure:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckStatus(resp)
//	})
//
// # Status mapping
//
// [CheckStatus] turns a response status into a keygraph error code:
//
//   - 2xx: nil
//   - 401, 403: UNAUTHORIZED
//   - 404: NOT_FOUND
//   - 408, 429, 5xx: NETWORK_ERROR, retryable
//   - anything else: NETWORK_ERROR
package httputil
