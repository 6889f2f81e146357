// Package storage materialises a settings table on disk: the instance
// password file and a rendered config for the test framework.
package storage
