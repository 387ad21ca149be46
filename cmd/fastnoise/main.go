package main

import "github.com/MeKo-Tech/fastnoise/internal/cmd"

func main() {
	cmd.Execute()
}
