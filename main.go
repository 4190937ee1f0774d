package main

import (
	"os"

	"github.com/servicefinder/auth-gateway/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
