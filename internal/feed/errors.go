package feed

import "fmt"

// FetchError is a network or transport failure reaching the feed.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch calendar feed %s: %v", RedactURL(e.URL), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError is feed content that does not conform to the ICS format.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse calendar feed %s: %v", RedactURL(e.URL), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
