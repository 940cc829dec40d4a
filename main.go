package main

import (
	"github.com/joho/godotenv"

	"gitlab.com/amap/amap-dispatch/cmd"
)

func main() {
	// a missing .env file is not an error; AMAP_* variables may come from the shell
	_ = godotenv.Load()

	// Execute command-line interface; should be the last call in main()
	cmd.Execute()
}
