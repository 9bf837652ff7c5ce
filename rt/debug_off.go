//go:build !objkit_debug

package rt

// debug enables precondition assertions.
const debug = false
