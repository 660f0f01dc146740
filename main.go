package main

import (
	"os"

	"github.com/ci-water/adhydro-streamflow/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
