package transport

import (
	"errors"
	"fmt"
)

// ErrResponse is wrapped by every ResponseError.
var ErrResponse = errors.New("freight: request failed")

// ResponseError is raised for responses with a non-2xx status.
type ResponseError struct {
	Status int
	URL    string

	// Body is the decoded JSON body, or the raw text when it is not JSON.
	Body any
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.Status)
}

// Unwrap lets callers match with errors.Is(err, ErrResponse).
func (e *ResponseError) Unwrap() error {
	return ErrResponse
}

// ResponseHandler turns a response into the data passed to a request
// deed's transform and final action.
type ResponseHandler func(resp *Response) (any, error)

// DefaultResponseHandler decodes JSON and JavaScript bodies.
//
// Failing statuses become a *ResponseError carrying the decoded body. Other
// content types are not parsed; they yield a payload whose "message"
// explains why.
func DefaultResponseHandler(resp *Response) (any, error) {
	if !resp.OK() {
		body, err := resp.DecodeJSON()
		if err != nil {
			body = string(resp.Body)
		}
		return nil, &ResponseError{Status: resp.StatusCode, URL: resp.URL, Body: body}
	}

	if !IsJSONContentType(resp.ContentType()) {
		return map[string]any{
			"message": fmt.Sprintf("The API response from %s returned a body type of something other than JSON. "+
				"If you need to handle non-JSON responses, configure your own response handler.", resp.URL),
		}, nil
	}

	return resp.DecodeJSON()
}
