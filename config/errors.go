package config

import "fmt"

// NotFoundError is returned when the config file does not exist
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("the config file %s is missing", e.Path)
}

// MalformedError wraps a YAML decoding failure
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed YAML: %v", e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

type InvalidOffsetError struct {
	Value int
}

func (e *InvalidOffsetError) Error() string {
	return fmt.Sprintf("offset value is incorrect: %d (value must be an integer and at least 2)", e.Value)
}

type InvalidReleaseDateError struct {
	Years []int
}

func (e *InvalidReleaseDateError) Error() string {
	return fmt.Sprintf("invalid release date: %v", e.Years)
}

type InvalidWebsiteError struct {
	URL string
}

func (e *InvalidWebsiteError) Error() string {
	if e.URL == "" {
		return "websites list is empty"
	}
	return fmt.Sprintf("invalid url in websites list: %s", e.URL)
}

type InvalidRegexError struct {
	Pattern string
	Err     error
}

func (e *InvalidRegexError) Error() string {
	return fmt.Sprintf("invalid regex %q: %v", e.Pattern, e.Err)
}

func (e *InvalidRegexError) Unwrap() error {
	return e.Err
}
