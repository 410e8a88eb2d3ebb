package main

import (
	"os"

	"ventureforge/internal/app"
)

func main() {
	os.Exit(app.Run())
}
