package main

import (
	"pcswitch/cmd"
	"pcswitch/logger"
)

func main() {
	defer logger.CloseLogFiles()

	defer func() {
		if r := recover(); r != nil {
			logger.Fatal("Panic recovered in main: %v", r)
		}
	}()

	cmd.Execute()
}
