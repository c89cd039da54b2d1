package ncm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// fetchJSONWithQuery fetches JSON from the specified URI with the specified query.
// The request runs inside the circuit breaker; retries happen in the retryable client.
//
//nolint:revive // Has no sense, it's cause Go doesn't allow struct methods to be generic.
func fetchJSONWithQuery[T any](
	c *ClientImpl,
	ctx context.Context,
	uri string,
	query url.Values,
) (*FetchJSONResult[T], error) {
	route, err := url.JoinPath(c.baseURL, uri)
	if err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (any, error) {
		request, requestErr := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, route, nil)
		if requestErr != nil {
			return nil, requestErr
		}

		if query != nil {
			request.URL.RawQuery = query.Encode()
		}

		response, doErr := c.httpClient.Do(request)
		if doErr != nil {
			return nil, doErr
		}

		defer response.Body.Close()

		if response.StatusCode != http.StatusOK {
			return &FetchJSONResult[T]{
				Data:       nil,
				StatusCode: response.StatusCode,
			}, fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, response.StatusCode)
		}

		var data T
		if decodeErr := json.NewDecoder(response.Body).Decode(&data); decodeErr != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", uri, decodeErr)
		}

		return &FetchJSONResult[T]{
			Data:       &data,
			StatusCode: response.StatusCode,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	//nolint:forcetypeassert // The breaker only returns what the closure above returned.
	return result.(*FetchJSONResult[T]), nil
}

// checkCode converts an in-body failure code into an error.
func checkCode(uri string, code int) error {
	if code != responseCodeOK {
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedAPICode, uri, code)
	}

	return nil
}

// formatIDList renders IDs the way the catalog expects them: [1,2,3].
func formatIDList(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}

	return "[" + strings.Join(parts, ",") + "]"
}
