// Package main provides the entrypoint for recaptcha-form-app.
package main

import (
	"os"

	"github.com/isometry/recaptcha-form-app/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		os.Exit(1)
	}
}
