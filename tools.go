//go:build tools

package main

import (
	_ "github.com/a-h/templ/cmd/templ"
)
