package link

import "errors"

// Validation errors carry the user-facing message rendered next to the
// original input on the index page.
var (
	ErrInvalidAddress  = errors.New("the address is not a t.me link")
	ErrInvalidUsername = errors.New("username must be at least 5 characters: letters, digits and underscore only")
	ErrInvalidPostID   = errors.New("post number must be numeric")
	ErrInvalidPort     = errors.New("proxy port must be a number between 1 and 65535")
	ErrInvalidSecret   = errors.New("proxy secret must be a 32-character hex string")
	ErrInvalidServer   = errors.New("proxy server must be an IPv4 address or a hostname")
)
