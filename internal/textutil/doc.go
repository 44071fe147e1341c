// Package textutil turns song metadata into names that are safe to use on the
// filesystem.
package textutil
