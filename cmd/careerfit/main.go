package main

import (
	"os"

	"careerfit.kr/careerfit/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
